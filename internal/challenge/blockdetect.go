package challenge

import "strings"

// BlockType describes the kind of block a rendered page shows.
type BlockType string

// Block types recognised in page content.
const (
	BlockNone           BlockType = ""
	BlockCaptcha        BlockType = "captcha"
	BlockUnusualTraffic BlockType = "unusual_traffic"
)

// DetectBlock checks rendered page HTML for anti-bot markers. It catches blocks
// served in place, without a redirect to the challenge URL.
func DetectBlock(html string) (bool, BlockType) {
	lower := strings.ToLower(html)

	if strings.Contains(lower, "our systems have detected unusual traffic") ||
		strings.Contains(lower, "unusual traffic from your computer network") {
		return true, BlockUnusualTraffic
	}

	if strings.Contains(lower, "g-recaptcha") ||
		strings.Contains(lower, "id=\"captcha-form\"") ||
		strings.Contains(lower, "hcaptcha") {
		return true, BlockCaptcha
	}

	return false, BlockNone
}
