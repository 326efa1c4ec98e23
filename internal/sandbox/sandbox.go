// Package sandbox executes caller-supplied table-generation source inside a
// capability-restricted Starlark environment and harvests the produced tables.
//
// The predeclared environment is the entire allow-list: it exposes table
// construction only. Filesystem, process, network, and import capability are
// never bound, so any attempt to use them fails name resolution inside the
// interpreter rather than being policed by a deny list.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"

	"github.com/dataforge/synthcore/internal/tabular"
)

const defaultTableSuffix = "_df"

// SavedFile records one harvested table and the file it was persisted to.
type SavedFile struct {
	Table string `json:"table"`
	Path  string `json:"path"`
}

// Result is the envelope returned by every Run call. Failures are reported
// here, never raised to the caller.
type Result struct {
	Success      bool        `json:"success"`
	SavedFiles   []SavedFile `json:"saved_files,omitempty"`
	Message      string      `json:"message,omitempty"`
	Error        string      `json:"error,omitempty"`
	WorkspaceDir string      `json:"workspace_dir"`
	OutputSubdir string      `json:"output_subdir,omitempty"`
}

// Runner executes generation source. TableSuffix is the binding-name
// convention used when harvesting globals; bindings registered explicitly via
// save_table are always collected.
type Runner struct {
	TableSuffix string
}

// NewRunner returns a Runner with the default naming convention.
func NewRunner() *Runner {
	return &Runner{TableSuffix: defaultTableSuffix}
}

// Run executes source in a fresh restricted environment, writes each
// recognized table as a CSV file under outputDir (plus outputSubdir when
// given), and reports the outcome. The evaluation context is single-use;
// bindings never leak between invocations. Files written before a mid-run
// failure are left in place.
func (r *Runner) Run(ctx context.Context, source, outputDir, outputSubdir string) *Result {
	res := &Result{WorkspaceDir: outputDir, OutputSubdir: outputSubdir}

	targetDir := outputDir
	if outputSubdir != "" {
		targetDir = filepath.Join(outputDir, outputSubdir)
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		res.Error = fmt.Sprintf("%s: %v", CodeIO, err)
		return res
	}

	collector := newCollector()
	thread := &starlark.Thread{Name: "generator"}
	if ctx != nil {
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				thread.Cancel(ctx.Err().Error())
			case <-done:
			}
		}()
	}

	predeclared := starlark.StringDict{
		"save_table": collector.builtin(),
	}
	globals, err := starlark.ExecFile(thread, "generator.star", source, predeclared)
	if err != nil {
		res.Error = fmt.Sprintf("%s: %v", CodeParse, err)
		return res
	}

	tables, convErr := r.harvest(collector, globals)
	if convErr != nil {
		res.Error = fmt.Sprintf("%s: %v", CodeParse, convErr)
		return res
	}
	if len(tables) == 0 {
		res.Message = "no tables found in the generation source"
		return res
	}

	for _, table := range tables {
		path, err := table.WriteCSV(targetDir)
		if err != nil {
			res.Error = fmt.Sprintf("%s: %v", CodeIO, err)
			return res
		}
		res.SavedFiles = append(res.SavedFiles, SavedFile{Table: table.Name, Path: path})
	}

	res.Success = true
	res.Message = fmt.Sprintf("saved %d tables", len(tables))
	return res
}

// harvest merges explicitly registered tables with convention-named globals.
// Explicit registrations win on name collision.
func (r *Runner) harvest(c *collector, globals starlark.StringDict) ([]*tabular.Table, error) {
	suffix := r.TableSuffix
	if suffix == "" {
		suffix = defaultTableSuffix
	}

	byName := make(map[string]*tabular.Table)
	order := make([]string, 0, len(c.tables))
	for _, t := range c.tables {
		if _, ok := byName[t.Name]; !ok {
			order = append(order, t.Name)
		}
		byName[t.Name] = t
	}

	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		if _, ok := byName[name]; ok {
			continue
		}
		table, ok, err := tableFromValue(name, globals[name])
		if err != nil {
			return nil, err
		}
		if ok {
			byName[name] = table
			order = append(order, name)
		}
	}

	tables := make([]*tabular.Table, 0, len(order))
	for _, name := range order {
		tables = append(tables, byName[name])
	}
	return tables, nil
}
