package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pthm/sqlreport/internal/compiler"
	"github.com/pthm/sqlreport/internal/executor"
	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqllint"
)

// errorBody is the JSON shape of every failure.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ReportResponse is the body of /query-report.
type ReportResponse struct {
	Result []executor.Row `json:"result"`
}

// ViewResponse is the body of /query-to-view.
type ViewResponse struct {
	FullQuery string `json:"fullQuery"`
}

// PartsResponse is the body of /query-parts.
type PartsResponse struct {
	compiler.Parts
	FullQuery string             `json:"fullQuery"`
	Dropped   []compiler.Dropped `json:"dropped"`
}

var errNoCatalog = errors.New("no database configured")

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.fail(w, r, "failed to list tables", errNoCatalog)
		return
	}
	tables, err := s.catalog.Tables(r.Context())
	if err != nil {
		s.fail(w, r, "failed to list tables", err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) handleAttributes(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("tableName")
	msg := fmt.Sprintf("failed to list attributes of %s", table)
	if s.catalog == nil {
		s.fail(w, r, msg, errNoCatalog)
		return
	}
	attrs, err := s.catalog.Attributes(r.Context(), table)
	if err != nil {
		s.fail(w, r, msg, err)
		return
	}
	writeJSON(w, http.StatusOK, attrs)
}

func (s *Server) handleRelatedTables(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.fail(w, r, "failed to list relations", errNoCatalog)
		return
	}
	rels, err := s.catalog.Relations(r.Context())
	if err != nil {
		s.fail(w, r, "failed to list relations", err)
		return
	}
	writeJSON(w, http.StatusOK, rels)
}

func (s *Server) handleQueryReport(w http.ResponseWriter, r *http.Request) {
	const msg = "failed to generate report"
	plan, err := s.compile(r)
	if err != nil {
		s.fail(w, r, msg, err)
		return
	}
	if s.runner == nil {
		s.fail(w, r, msg, errNoCatalog)
		return
	}
	rows, err := s.runner.Run(r.Context(), plan)
	if err != nil {
		s.fail(w, r, msg, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveRows(len(rows))
	}
	writeJSON(w, http.StatusOK, ReportResponse{Result: rows})
}

func (s *Server) handleQueryToView(w http.ResponseWriter, r *http.Request) {
	plan, err := s.compile(r)
	if err != nil {
		s.fail(w, r, "failed to build query", err)
		return
	}
	writeJSON(w, http.StatusOK, ViewResponse{FullQuery: plan.Statement()})
}

func (s *Server) handleQueryParts(w http.ResponseWriter, r *http.Request) {
	plan, err := s.compile(r)
	if err != nil {
		s.fail(w, r, "failed to build query", err)
		return
	}
	dropped := plan.Dropped
	if dropped == nil {
		dropped = []compiler.Dropped{}
	}
	writeJSON(w, http.StatusOK, PartsResponse{
		Parts:     plan.Parts(),
		FullQuery: plan.Statement(),
		Dropped:   dropped,
	})
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if s.catalog != nil {
		s.catalog.Invalidate()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// compile decodes the request body and compiles it. Catalog column types
// are looked up only when a filter uses a pattern operator.
func (s *Server) compile(r *http.Request) (*compiler.Plan, error) {
	req, err := report.Decode(http.MaxBytesReader(nil, r.Body, s.maxBodyBytes))
	if err != nil {
		return nil, err
	}

	var opts []compiler.CompileOption
	if s.catalog != nil && hasPatternFilter(req) {
		types, err := s.catalog.ColumnTypes(r.Context(), req.TableNames())
		if err != nil {
			s.logger.Warn("column types unavailable", "error", err)
		} else {
			opts = append(opts, compiler.WithColumnTypes(types))
		}
	}

	plan, err := s.compiler.Compile(req, opts...)
	if s.metrics != nil {
		s.metrics.ObserveCompile(plan, err)
	}
	if err != nil {
		return nil, err
	}

	if s.lint {
		stmt := plan.Statement()
		if err := sqllint.Check(stmt); err != nil {
			return nil, err
		}
		if fp, err := sqllint.Fingerprint(stmt); err == nil {
			s.logger.Debug("report compiled", "fingerprint", fp)
		}
	}
	return plan, nil
}

func hasPatternFilter(req report.Request) bool {
	for _, f := range req.Filters {
		if op, ok := report.ParseOperator(string(f.Operator)); ok && op.IsPattern() {
			return true
		}
	}
	return false
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg, "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: msg, Details: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
