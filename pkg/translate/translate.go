// Package translate は、英語の要約を単語単位の辞書置換でウルドゥー語に置き換えます。
// 機械翻訳ではなく、辞書にない単語はそのまま残ります。
package translate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Dictionary は小文字の英単語からウルドゥー語への対応表です。
type Dictionary map[string]string

// DefaultDictionary はブログ記事でよく使われる語の対応表です。
var DefaultDictionary = Dictionary{
	"a":           "ایک",
	"about":       "کے بارے میں",
	"and":         "اور",
	"article":     "مضمون",
	"best":        "بہترین",
	"blog":        "بلاگ",
	"book":        "کتاب",
	"business":    "کاروبار",
	"but":         "لیکن",
	"can":         "سکتا",
	"company":     "کمپنی",
	"computer":    "کمپیوٹر",
	"content":     "مواد",
	"data":        "ڈیٹا",
	"day":         "دن",
	"development": "ترقی",
	"education":   "تعلیم",
	"for":         "کے لیے",
	"from":        "سے",
	"good":        "اچھا",
	"health":      "صحت",
	"help":        "مدد",
	"important":   "اہم",
	"in":          "میں",
	"information": "معلومات",
	"is":          "ہے",
	"it":          "یہ",
	"knowledge":   "علم",
	"language":    "زبان",
	"learn":       "سیکھیں",
	"life":        "زندگی",
	"money":       "پیسہ",
	"new":         "نیا",
	"not":         "نہیں",
	"of":          "کا",
	"on":          "پر",
	"people":      "لوگ",
	"post":        "پوسٹ",
	"problem":     "مسئلہ",
	"question":    "سوال",
	"read":        "پڑھیں",
	"school":      "اسکول",
	"science":     "سائنس",
	"student":     "طالب علم",
	"students":    "طلباء",
	"summary":     "خلاصہ",
	"technology":  "ٹیکنالوجی",
	"the":         "",
	"this":        "یہ",
	"time":        "وقت",
	"to":          "کو",
	"today":       "آج",
	"was":         "تھا",
	"water":       "پانی",
	"web":         "ویب",
	"with":        "کے ساتھ",
	"work":        "کام",
	"world":       "دنیا",
	"year":        "سال",
	"you":         "آپ",
}

// Translator は Dictionary による置換を行います。
type Translator struct {
	dict Dictionary
}

// New は dict を使う Translator を返します。nil の場合は DefaultDictionary を使います。
func New(dict Dictionary) *Translator {
	if dict == nil {
		dict = DefaultDictionary
	}
	return &Translator{dict: dict}
}

// ToUrdu は text をウルドゥー語に置き換えます。
func ToUrdu(text string) string {
	return New(nil).Translate(text)
}

// Translate は text を空白で区切り、各単語を大文字小文字を区別せずに置換します。
// 単語の前後の句読点は残し、訳語が空の単語 ("the" など) は落とします。
func (t *Translator) Translate(text string) string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		lead, core, trail := splitPunct(w)
		if tr, ok := t.dict[strings.ToLower(core)]; ok {
			if tr == "" && lead == "" && trail == "" {
				continue
			}
			core = tr
		}
		out = append(out, lead+core+trail)
	}
	return strings.Join(out, " ")
}

// splitPunct は単語を先頭の句読点、本体、末尾の句読点に分けます。
func splitPunct(w string) (string, string, string) {
	isWordRune := func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
	}
	start := strings.IndexFunc(w, isWordRune)
	if start < 0 {
		return w, "", ""
	}
	end := strings.LastIndexFunc(w, isWordRune)
	_, size := utf8.DecodeRuneInString(w[end:])
	end += size
	return w[:start], w[start:end], w[end:]
}
