package classifier

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gatekeeper/internal/core/normalize"
)

// mask replaces a whitelisted occurrence so no link rule can see it
const mask = "\x00"

// prefixTail matches a scheme and/or www marker that ends right before a whitelisted domain.
// The compact projection collapses "www." to "w."
var prefixTail = regexp.MustCompile(`(?:h\s*t\s*t\s*p\s*s?\s*:\s*/\s*/\s*)?(?:w\s*w\s*w\s*\.\s*|w\.)?$`)

const prefixWindow = 48

type span struct{ start, end int }

// maskWhitelist hides whitelisted occurrences in the spaced projection and returns both
// masked projections. Occurrences are found strictly on the spaced text first; the compact
// text is then searched again so domains written with spacing evasion are still exempted
func (c *Classifier) maskWhitelist(spaced string) (string, string) {
	if spaced == "" || len(c.pack.Whitelist) == 0 {
		return spaced, normalize.Compact(spaced)
	}

	masked := applyMask(spaced, c.findWhitelist(spaced, true))
	compact, from, to := compactIndex(masked)

	var back []span
	for _, sp := range c.findWhitelist(compact, false) {
		src := span{from[sp.start], to[sp.end-1]}
		// unspaced occurrences were already judged by the strict pass
		if !strings.Contains(masked[src.start:src.end], " ") {
			continue
		}
		back = append(back, src)
	}
	if len(back) == 0 {
		return masked, compact
	}
	masked = applyMask(masked, back)
	return masked, normalize.Compact(masked)
}

// findWhitelist returns the spans to mask in s.
// strict requires domain boundaries and extends over subdomain labels; relaxed is for
// compact text where word boundaries were lost and only extends over a path
func (c *Classifier) findWhitelist(s string, strict bool) []span {
	var out []span
	for _, dom := range c.pack.Whitelist {
		for off := 0; off < len(s); {
			i := strings.Index(s[off:], dom)
			if i < 0 {
				break
			}
			start, end := off+i, off+i+len(dom)
			off = start + 1

			if strict {
				if !leftBoundary(s, start) || !rightBoundary(s, end) {
					continue
				}
				// "spotify.com@evil.com" is userinfo; the real host follows the @
				if strings.HasPrefix(s[end:], "@") {
					continue
				}
				start = extendLabels(s, start)
			}
			start = extendPrefix(s, start)
			if strict || strings.HasPrefix(s[end:], "/") {
				end = extendPath(s, end)
			}
			out = append(out, span{start, end})
		}
	}
	return out
}

func leftBoundary(s string, start int) bool {
	if start == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:start])
	return !isDomainRune(r)
}

func rightBoundary(s string, end int) bool {
	if end >= len(s) {
		return true
	}
	r, sz := utf8.DecodeRuneInString(s[end:])
	if r == '.' {
		// trailing sentence period is fine, another label is not
		if end+sz >= len(s) {
			return true
		}
		r, _ = utf8.DecodeRuneInString(s[end+sz:])
	}
	return !isDomainRune(r)
}

// extendLabels walks left over subdomain labels like "open." or "www."
func extendLabels(s string, start int) int {
	for start > 0 {
		b := s[start-1]
		if b == '.' || b == '-' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') {
			start--
			continue
		}
		break
	}
	return start
}

func extendPrefix(s string, start int) int {
	lo := max(0, start-prefixWindow)
	if loc := prefixTail.FindStringIndex(s[lo:start]); loc != nil {
		return lo + loc[0]
	}
	return start
}

// extendPath walks right over path, query and fragment characters. It stops at the next
// link marker and at anything a URL path cannot carry unescaped, so a host glued on with
// "," or "@" stays visible to the link rules
func extendPath(s string, end int) int {
	for end < len(s) {
		rest := s[end:]
		if strings.HasPrefix(rest, "http") || strings.HasPrefix(rest, "www") {
			break
		}
		r, sz := utf8.DecodeRuneInString(rest)
		if !isPathRune(r) {
			break
		}
		end += sz
	}
	return end
}

// isPathRune is the unreserved set plus the delimiters a shared track or playlist
// link uses; "@", ",", ";" and quotes end the path
func isPathRune(r rune) bool {
	if isWordRune(r) {
		return true
	}
	return strings.ContainsRune("-._~/?#%&=+:!$*()", r)
}

// applyMask replaces each merged span with a single mask byte
func applyMask(s string, spans []span) string {
	if len(spans) == 0 {
		return s
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	b.Grow(len(s))
	pos := 0
	cur := spans[0]
	flush := func(sp span) {
		b.WriteString(s[pos:sp.start])
		b.WriteString(mask)
		pos = sp.end
	}
	for _, sp := range spans[1:] {
		if sp.start <= cur.end {
			cur.end = max(cur.end, sp.end)
			continue
		}
		flush(cur)
		cur = sp
	}
	flush(cur)
	b.WriteString(s[pos:])
	return b.String()
}

// compactIndex builds the compact projection of spaced and, for every compact byte,
// the spaced byte range it came from. It must agree with normalize.Compact
func compactIndex(spaced string) (string, []int, []int) {
	type src struct {
		r     rune
		start int
		end   int
	}
	rs := make([]src, 0, len(spaced))
	for i, r := range spaced {
		if unicode.IsSpace(r) {
			continue
		}
		rs = append(rs, src{r: r, start: i, end: i + utf8.RuneLen(r)})
	}

	var b strings.Builder
	b.Grow(len(spaced))
	from := make([]int, 0, len(spaced))
	to := make([]int, 0, len(spaced))
	emit := func(r rune, start, end int) {
		n, _ := b.WriteRune(r)
		for range n {
			from = append(from, start)
			to = append(to, end)
		}
	}
	for i := 0; i < len(rs); {
		j := i + 1
		for j < len(rs) && rs[j].r == rs[i].r {
			j++
		}
		if j-i >= 3 {
			emit(rs[i].r, rs[i].start, rs[j-1].end)
		} else {
			for k := i; k < j; k++ {
				emit(rs[k].r, rs[k].start, rs[k].end)
			}
		}
		i = j
	}
	return b.String(), from, to
}

func isDomainRune(r rune) bool {
	return r == '-' || isWordRune(r)
}

// isWordRune reports whether r continues a word for boundary checks
func isWordRune(r rune) bool {
	if r == utf8.RuneError || r == 0 {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
