package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"

	"github.com/bimaega15/translate-video/subtitle"
)

// Pause between API calls to stay under MyMemory's rate limit.
const requestDelay = 100 * time.Millisecond

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	bracketedRe     = regexp.MustCompile(`\[.*?\]`)
	parentheticalRe = regexp.MustCompile(`\(.*?\)`)
	repeatDotRe     = regexp.MustCompile(`[.]{2,}`)
	repeatBangRe    = regexp.MustCompile(`[!]{2,}`)
	repeatQuestRe   = regexp.MustCompile(`[?]{2,}`)
)

// Client translates transcript segments to English through the MyMemory API.
type Client struct {
	apiURL     string
	httpClient *http.Client
	delay      time.Duration
}

func NewClient(apiURL string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		delay:      requestDelay,
	}
}

type myMemoryResponse struct {
	ResponseStatus int `json:"responseStatus"`
	ResponseData   struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
}

// TranslateSegments translates each segment's text to English, leaving the
// timestamps untouched: the output always has exactly one entry per input
// segment. sourceLang may be an ISO 639-1 code or "auto"; unresolvable
// languages are detected from the transcript text itself. English input is
// passed through without touching the API.
func (c *Client) TranslateSegments(ctx context.Context, segments []subtitle.Segment, sourceLang string) ([]subtitle.Segment, error) {
	src := c.resolveSourceLanguage(segments, sourceLang)

	translated := make([]subtitle.Segment, 0, len(segments))
	if isEnglish(src) {
		for _, seg := range segments {
			seg.OriginalText = seg.Text
			translated = append(translated, seg)
		}
		return translated, nil
	}

	for i, seg := range segments {
		text := cleanText(seg.Text)
		out := seg
		out.OriginalText = seg.Text

		// Too short to translate meaningfully, keep as-is.
		if len(text) < 3 {
			translated = append(translated, out)
			continue
		}

		result, err := c.translateText(ctx, text, src, "en")
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		out.Text = result
		translated = append(translated, out)

		if i < len(segments)-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.delay):
			}
		}
	}

	return translated, nil
}

func (c *Client) translateText(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", fmt.Sprintf("%s|%s", sourceLang, targetLang))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation service returned status %s", resp.Status)
	}

	var payload myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode translation response: %w", err)
	}
	if payload.ResponseStatus != http.StatusOK {
		return "", fmt.Errorf("translation service reported status %d", payload.ResponseStatus)
	}

	return payload.ResponseData.TranslatedText, nil
}

// resolveSourceLanguage settles on an ISO 639-1 code: an explicit hint wins,
// otherwise the transcript text is run through language detection.
func (c *Client) resolveSourceLanguage(segments []subtitle.Segment, hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint != "" && hint != "auto" {
		return hint
	}

	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteString(seg.Text)
		sb.WriteString(" ")
	}
	detected := whatlanggo.DetectLang(sb.String()).Iso6391()
	if detected == "" {
		return "auto"
	}
	return detected
}

func isEnglish(code string) bool {
	tag := language.Make(code)
	base, conf := tag.Base()
	return conf != language.No && base.String() == "en"
}

// cleanText strips speech artifacts that confuse machine translation.
func cleanText(text string) string {
	text = bracketedRe.ReplaceAllString(text, "")
	text = parentheticalRe.ReplaceAllString(text, "")
	text = repeatDotRe.ReplaceAllString(text, ".")
	text = repeatBangRe.ReplaceAllString(text, "!")
	text = repeatQuestRe.ReplaceAllString(text, "?")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
