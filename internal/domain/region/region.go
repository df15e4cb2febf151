// Package region maps upstream region codes to display names.
package region

import "sort"

// Region is one upstream region code with its Korean display name.
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var names = map[string]string{
	"11": "서울",
	"26": "부산",
	"27": "대구",
	"28": "인천",
	"29": "광주",
	"30": "대전",
	"31": "울산",
	"36": "세종",
	"41": "경기",
	"42": "강원",
	"43": "충북",
	"44": "충남",
	"45": "전북",
	"46": "전남",
	"47": "경북",
	"48": "경남",
	"50": "제주",
}

// Name returns the display name for code, or code itself when unknown.
func Name(code string) string {
	if n, ok := names[code]; ok {
		return n
	}
	return code
}

// All returns every known region ordered by code.
func All() []Region {
	out := make([]Region, 0, len(names))
	for c, n := range names {
		out = append(out, Region{Code: c, Name: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
