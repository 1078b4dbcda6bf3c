package lexical

import (
	"regexp"
	"strings"

	"github.com/yanyiwu/gojieba"
)

// Tokenizer segments a query into search terms before the BM25 match
// query runs, grounded on the teacher's query-preprocessing plugin
// (internal/application/service/chat_pipline/preprocess.go): CJK-aware
// tokenization via gojieba's search-mode cutter, then stopword removal so
// the lexical leg scores content terms rather than function words.
type Tokenizer struct {
	jieba     *gojieba.Jieba
	stopwords map[string]struct{}
}

var (
	urlRegex        = regexp.MustCompile(`https?://\S+`)
	multiSpaceRegex = regexp.MustCompile(`\s+`)
)

// NewTokenizer builds a Tokenizer with gojieba's default dictionary.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{jieba: gojieba.NewJieba(), stopwords: defaultStopwords()}
}

// Close releases the underlying Jieba dictionary (spec's DOMAIN STACK
// note: every long-lived C-backed resource is registered with the
// ResourceCleaner; the caller is expected to do so, same as the
// teacher's PluginPreprocess.Close/ShutdownHandler pair).
func (t *Tokenizer) Close() {
	if t.jieba != nil {
		t.jieba.Free()
		t.jieba = nil
	}
}

// Terms tokenizes and stopword-filters query into a space-joined term
// string suitable for a match query. Falls back to the raw query when
// filtering strips everything (e.g. an all-stopword query).
func (t *Tokenizer) Terms(query string) string {
	cleaned := multiSpaceRegex.ReplaceAllString(urlRegex.ReplaceAllString(query, " "), " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return query
	}

	segments := t.jieba.CutForSearch(cleaned, true)
	filtered := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if _, stop := t.stopwords[seg]; stop {
			continue
		}
		filtered = append(filtered, seg)
	}
	if len(filtered) == 0 {
		return strings.Join(segments, " ")
	}
	return strings.Join(filtered, " ")
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"的", "了", "和", "是", "在", "我", "你", "他", "她", "它",
		"这", "那", "什么", "怎么", "如何", "为什么", "哪里",
		"the", "is", "are", "am", "a", "an", "and", "or", "but", "if",
		"of", "to", "in", "on", "at", "by", "for", "with", "about", "from",
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
