// Package diffreport renders a human-readable comparison between a
// counterexample's original built value and its shrunk counterpart (or
// between two failing values from different seeds), using dyff the same
// way cmd/graft's own --diff flag does (gonvenience/ytbx +
// homeport/dyff), just pointed at in-memory documents instead of files on
// disk.
package diffreport

import (
	"bufio"
	"bytes"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
)

// Compare renders a dyff human report between before and after, both
// already-decoded documents (e.g. map[string]interface{} / []interface{}
// built by a script), labeled with the names given.
func Compare(beforeName string, before interface{}, afterName string, after interface{}) (string, bool, error) {
	fromFile := ytbx.InputFile{Location: beforeName, Documents: []interface{}{before}}
	toFile := ytbx.InputFile{Location: afterName, Documents: []interface{}{after}}

	report, err := dyff.CompareInputFiles(fromFile, toFile)
	if err != nil {
		return "", false, err
	}

	writer := &dyff.HumanReport{
		Report:       report,
		NoTableStyle: false,
		OmitHeader:   true,
	}

	var buf bytes.Buffer
	out := bufio.NewWriter(&buf)
	if err := writer.WriteReport(out); err != nil {
		return "", false, err
	}
	out.Flush()

	return buf.String(), len(report.Diffs) > 0, nil
}
