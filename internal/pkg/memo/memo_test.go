package memo

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestParseDonorName(t *testing.T) {
	tests := []struct {
		name   string
		memo   string
		want   string
		source NameSource
	}{
		{
			name:   "reference number then greeting",
			memo:   "FT25354419443518 Ung ho Bui Tuan Tu",
			want:   "Ung ho Bui Tuan",
			source: SourceLeadingWords,
		},
		{
			name:   "name before transfer verb",
			memo:   "NGUYEN VAN A chuyen tien",
			want:   "NGUYEN VAN A",
			source: SourceKeyword,
		},
		{
			name:   "mbvcb reference with dots",
			memo:   "MBVCB.1234567.NGUYEN VAN B chuyen khoan ung ho",
			want:   "NGUYEN VAN B",
			source: SourceKeyword,
		},
		{
			name:   "diacritics keep their original spelling",
			memo:   "Ủng hộ anh Tú",
			want:   "anh Tú",
			source: SourceKeyword,
		},
		{
			name:   "trailing transaction reference",
			memo:   "TRAN THI C ck - Ma GD ACSP/ 123456",
			want:   "TRAN THI C",
			source: SourceKeyword,
		},
		{
			name:   "inline transaction reference",
			memo:   "Ma GD: ABC123 - LE VAN D",
			want:   "LE VAN D",
			source: SourceLeadingWords,
		},
		{
			name:   "keyword inside a word is not a keyword",
			memo:   "block chain team",
			want:   "block chain team",
			source: SourceLeadingWords,
		},
		{
			name:   "leading words capped at four",
			memo:   "one two three four five",
			want:   "one two three four",
			source: SourceLeadingWords,
		},
		{
			name:   "only keywords",
			memo:   "chuyen khoan ung ho",
			want:   Anonymous,
			source: SourcePlaceholder,
		},
		{
			name:   "single token",
			memo:   "xyz",
			want:   Anonymous,
			source: SourcePlaceholder,
		},
		{
			name:   "too many tokens without keyword",
			memo:   "a b c d e f",
			want:   Anonymous,
			source: SourcePlaceholder,
		},
		{
			name:   "digits only",
			memo:   "123 456",
			want:   Anonymous,
			source: SourcePlaceholder,
		},
		{
			name:   "empty",
			memo:   "   ",
			want:   Anonymous,
			source: SourcePlaceholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.memo)
			assert.Equal(t, tt.want, got.DonorName)
			assert.Equal(t, tt.source, got.NameSource)
		})
	}
}

func TestParseLinkingCode(t *testing.T) {
	tests := []struct {
		memo string
		want string
	}{
		{"BTT-AB12CD mua cafe", "BTT-AB12CD"},
		{"ung ho btt-ab12cd nhe", "BTT-AB12CD"},
		{"ung ho BTTXY98ZZ", "BTT-XY98ZZ"},
		{"BTT-AB1 too short", ""},
		{"no code here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.memo, func(t *testing.T) {
			got := Parse(tt.memo)
			assert.Equal(t, tt.want, got.LinkingCode)
			assert.Equal(t, tt.want != "", got.HasLinkingCode())
		})
	}
}

func TestParseCodeIsRemovedFromName(t *testing.T) {
	got := Parse("BTT-AB12CD mua cafe")

	assert.Equal(t, "BTT-AB12CD", got.LinkingCode)
	assert.Equal(t, "mua cafe", got.DonorName)
}

func TestParseLeadingWordsAreCappedByRunes(t *testing.T) {
	long := strings.Repeat("NGUYỄNVĂNANH", 4)
	got := Parse(long + " " + long + " " + long + " xyz")

	assert.Equal(t, SourceLeadingWords, got.NameSource)
	assert.LessOrEqual(t, utf8.RuneCountInString(got.DonorName), maxNameRunes)
	assert.Equal(t, long+" N", got.DonorName)
	assert.True(t, utf8.ValidString(got.DonorName))
}

func TestParseIsDeterministic(t *testing.T) {
	memo := "MBVCB.99.PHAM VAN E chuyen tien BTT-QWERTY"
	first := Parse(memo)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Parse(memo))
	}
	assert.Equal(t, "PHAM VAN E", first.DonorName)
	assert.Equal(t, "BTT-QWERTY", first.LinkingCode)
}

func TestCustomPrefix(t *testing.T) {
	p := NewParser("nuoi", DefaultKeywords)

	assert.Equal(t, "NUOI", p.CodePrefix())
	assert.Equal(t, "NUOI-ABCDEF", p.Parse("gui NUOI-abcdef").LinkingCode)
	assert.Empty(t, p.Parse("BTT-ABCDEF").LinkingCode)
}

func TestNormalizeCode(t *testing.T) {
	p := NewParser(DefaultCodePrefix, nil)

	code, ok := p.NormalizeCode(" btt-ab12cd ")
	assert.True(t, ok)
	assert.Equal(t, "BTT-AB12CD", code)

	code, ok = p.NormalizeCode("BTTAB12CD")
	assert.True(t, ok)
	assert.Equal(t, "BTT-AB12CD", code)

	_, ok = p.NormalizeCode("BTT-AB12CD extra")
	assert.False(t, ok)
}

func TestFoldKeepsRuneCount(t *testing.T) {
	in := "Đặng Thị Hồng Nhung"
	out := fold(in)

	assert.Equal(t, "dang thi hong nhung", out)
	assert.Equal(t, len([]rune(in)), len([]rune(out)))
}
