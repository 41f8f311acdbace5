// Package pinyin provides a minimal pinyin-initials lookup for ticker name
// search. There is no pinyin library anywhere in this module's dependency
// corpus, so this table is deliberately small and standard-library only
// (see DESIGN.md): it covers the initials needed to make the three-shape
// ticker search usable, not a general-purpose transliteration engine.
package pinyin

import "strings"

// initials maps individual simplified-Chinese characters commonly seen in
// A-share display names to their pinyin initial letter. Unmapped
// characters contribute no initial and are skipped.
var initials = map[rune]byte{
	'阿': 'a', '安': 'a', '澳': 'a',
	'百': 'b', '北': 'b', '本': 'b', '保': 'b', '宝': 'b', '标': 'b', '比': 'b',
	'长': 'c', '成': 'c', '创': 'c', '重': 'c', '川': 'c', '传': 'c', '城': 'c',
	'大': 'd', '东': 'd', '电': 'd', '动': 'd', '德': 'd', '道': 'd', '达': 'd',
	'恩': 'e',
	'发': 'f', '方': 'f', '丰': 'f', '福': 'f', '飞': 'f',
	'光': 'g', '广': 'g', '国': 'g', '高': 'g', '港': 'g', '工': 'g', '贵': 'g',
	'华': 'h', '恒': 'h', '海': 'h', '宏': 'h', '红': 'h', '航': 'h', '河': 'h',
	'集': 'j', '建': 'j', '金': 'j', '江': 'j', '久': 'j', '佳': 'j', '加': 'j',
	'科': 'k', '凯': 'k', '康': 'k', '昆': 'k',
	'联': 'l', '隆': 'l', '龙': 'l', '蓝': 'l', '绿': 'l', '利': 'l', '立': 'l',
	'美': 'm', '民': 'm', '茂': 'm', '明': 'm', '木': 'm',
	'南': 'n', '能': 'n', '农': 'n',
	'平': 'p', '普': 'p',
	'奇': 'q', '青': 'q', '泉': 'q', '千': 'q',
	'人': 'r', '荣': 'r', '瑞': 'r',
	'三': 's', '上': 's', '盛': 's', '生': 's', '山': 's', '深': 's', '世': 's',
	'天': 't', '泰': 't', '通': 't', '同': 't',
	'万': 'w', '王': 'w', '伟': 'w', '维': 'w',
	'鑫': 'x', '新': 'x', '西': 'x', '湘': 'x', '兴': 'x', '信': 'x', '祥': 'x',
	'亚': 'y', '永': 'y', '阳': 'y', '银': 'y', '油': 'y', '远': 'y', '源': 'y',
	'中': 'z', '众': 'z', '紫': 'z', '浙': 'z', '致': 'z', '振': 'z', '珠': 'z',
}

// Initials returns the lowercase pinyin-initials string for name, skipping
// any non-ASCII character not present in the table (ASCII characters pass
// through, with letters lowercased).
func Initials(name string) string {
	var b strings.Builder
	for _, r := range name {
		if initial, ok := initials[r]; ok {
			b.WriteByte(initial)
			continue
		}
		if r < 128 {
			b.WriteRune(toLowerASCII(r))
		}
	}
	return b.String()
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// MatchesInitials reports whether query is a substring of name's pinyin
// initials, case-insensitively.
func MatchesInitials(name, query string) bool {
	if query == "" {
		return false
	}
	return strings.Contains(Initials(name), strings.ToLower(query))
}
