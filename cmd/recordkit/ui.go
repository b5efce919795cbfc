package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/coderi421/recordkit/orm"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	faintColor   = color.New(color.Faint)
)

// printer 数据写到 out，状态和日志写到 status
type printer struct {
	out     io.Writer
	status  io.Writer
	verbose bool
}

func (p *printer) successf(format string, args ...any) {
	_, _ = successColor.Fprintf(p.status, "✓ "+format+"\n", args...)
}

func (p *printer) warnf(format string, args ...any) {
	_, _ = warnColor.Fprintf(p.status, "! "+format+"\n", args...)
}

func (p *printer) debugf(format string, args ...any) {
	if !p.verbose {
		return
	}
	_, _ = faintColor.Fprintf(p.status, strings.TrimSuffix(format, "\n")+"\n", args...)
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportError 校验失败的时候逐个字段列出原因
func reportError(w io.Writer, err error) {
	_, _ = errorColor.Fprintf(w, "✗ %v\n", err)
	var invalid *orm.InvalidRecordError
	if !errors.As(err, &invalid) {
		return
	}
	names := make([]string, 0, len(invalid.Fields))
	for name := range invalid.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = warnColor.Fprintf(w, "  %s: %v\n", name, invalid.Fields[name])
	}
}

// suggest 找出和 name 相近的类名，先做模糊匹配，匹配不到再按编辑距离找
func suggest(name string, candidates []string) []string {
	if name == "" {
		return nil
	}
	ranks := fuzzy.RankFindNormalizedFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		res := make([]string, 0, len(ranks))
		for _, r := range ranks {
			res = append(res, r.Target)
		}
		return res
	}
	var res []string
	lower := strings.ToLower(name)
	for _, c := range candidates {
		if fuzzy.LevenshteinDistance(lower, strings.ToLower(c)) <= 2 {
			res = append(res, c)
		}
	}
	return res
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, " or ")
}
