// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package session

import (
	"sync"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/expr"
	"github.com/relaydb/qcore/plancache"
	"github.com/relaydb/qcore/wire"
)

// Config bundles the per-session parameters that come from the server
// config rather than per-statement state (spec.md §6 defaults, carried
// through package config.Config).
type Config struct {
	User            wire.OID
	Hint            expr.Hint
	Options         expr.Options
	PlanCacheSize   int // 0 disables the plan cache for this session
	HostVarLateBind bool
}

// Session is a per-client statement book: an ordered array of compiled
// statements plus a named prepared-statement store (spec.md §4.4).
// Grounded on the teacher's tenant.Manager (a mutex-guarded map of
// live per-ID state with get/release operations), generalized from
// per-tenant subprocess handles to per-index Statement entries and
// per-name prepared entries.
type Session struct {
	cfg      Config
	parser   Parser
	planner  Planner
	runner   Runner
	cache    *plancache.Cache

	mu         sync.Mutex
	statements []*Statement
	prepared   map[string]*Statement   // lower-cased name -> owning sub-session statement
	snapshots  map[string]preparedMeta // survives DEALLOCATE
	closed     bool
}

// preparedMeta is the snapshot of a deallocated prepared statement's
// metadata, kept so metadata queries issued after DEALLOCATE still
// succeed (spec.md §4.4).
type preparedMeta struct {
	kind        Kind
	hostVars    []expr.HostVarDomain
	columnTypes []expr.Domain
}

// Open creates a new Session (spec.md §4.4 "open").
func Open(cfg Config, parser Parser, planner Planner, runner Runner, cache *plancache.Cache) *Session {
	return &Session{
		cfg:       cfg,
		parser:    parser,
		planner:   planner,
		runner:    runner,
		cache:     cache,
		prepared:  make(map[string]*Statement),
		snapshots: make(map[string]preparedMeta),
	}
}

func (s *Session) checkOpen() error {
	if s.closed {
		return direrr.New(direrr.InvalidSession, "session is closed")
	}
	return nil
}

func (s *Session) planCacheEnabled() bool {
	return s.cfg.PlanCacheSize > 0 && s.cache != nil
}

// compile parses and type-checks sql, optionally installing the
// resulting plan in the cache, and returns the populated Statement.
func (s *Session) compile(sql string) (*Statement, error) {
	n, err := s.parser.Parse(sql)
	if err != nil {
		return nil, direrr.Wrap(direrr.Syntax, err)
	}
	checked, hostVars, err := expr.Check(n, s.cfg.Hint, s.cfg.Options)
	if err != nil {
		return nil, direrr.Wrap(direrr.Semantic, err)
	}

	stmt := &Statement{
		Stage:       StageCompiled,
		Kind:        kindOf(checked),
		Text:        sql,
		AST:         checked,
		HostVars:    hostVars,
		ColumnTypes: columnTypesOf(checked),
	}

	if s.planCacheEnabled() {
		if err := s.installPlan(stmt); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// installPlan (re-)generates stmt's plan bytes and registers them in
// the cache, recording the resulting PlanID on stmt.
func (s *Session) installPlan(stmt *Statement) error {
	stream, err := s.planner.Plan(stmt.AST)
	if err != nil {
		return direrr.Wrap(direrr.Semantic, err)
	}
	id, err := s.cache.Prepare(stmt.Text, s.cfg.User, stream)
	if err != nil {
		return direrr.Wrap(direrr.Execution, err)
	}
	stmt.Cached = true
	stmt.PlanID = id
	return nil
}

// Compile parses and type-checks the next statement and appends it to
// the session's ordered array, returning its index (spec.md §4.4).
func (s *Session) Compile(sql string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	stmt, err := s.compile(sql)
	if err != nil {
		return 0, err
	}
	s.statements = append(s.statements, stmt)
	return len(s.statements) - 1, nil
}

func (s *Session) statementAt(i int) (*Statement, error) {
	if i < 0 || i >= len(s.statements) {
		return nil, direrr.New(direrr.ObjInvalidArguments, "statement index out of range")
	}
	stmt := s.statements[i]
	if stmt.Stage < StageCompiled {
		return nil, direrr.New(direrr.EmptyStatement, "statement has not been compiled")
	}
	return stmt, nil
}

// lookupPlan resolves a statement's executable plan bytes, re-preparing
// from the statement's own AST when the cache entry is missing.
func (s *Session) lookupPlan(stmt *Statement) ([]byte, error) {
	if !stmt.Cached {
		return nil, nil
	}
	plan, err := s.cache.Lookup(stmt.PlanID)
	if err == plancache.ErrInvalidXASLNode && s.planCacheEnabled() {
		if err := s.installPlan(stmt); err != nil {
			return nil, err
		}
		plan, err = s.cache.Lookup(stmt.PlanID)
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// runWithRetry executes stmt once, and on QPROC_INVALID_XASL_NODE drops
// the stale plan ID, re-prepares, and retries exactly once (spec.md
// §4.4 and §4.6).
func (s *Session) runWithRetry(stmt *Statement, hostVarValues []*expr.Literal) (int64, error) {
	bound, err := bindHostVars(stmt.HostVars, hostVarValues, s.cfg.HostVarLateBind)
	if err != nil {
		return 0, err
	}

	plan, err := s.lookupPlan(stmt)
	if err != nil {
		return 0, err
	}
	rows, err := s.runner.Run(plan, bound)
	if err == nil {
		return rows, nil
	}
	if direrr.CodeOf(err) != direrr.QprocInvalidXASLNode {
		return 0, err
	}

	// bounded single retry: drop the stale entry, re-prepare, re-run.
	if stmt.Cached {
		s.cache.Drop(stmt.Text, s.cfg.User, stmt.PlanID)
		stmt.Cached = false
	}
	if s.planCacheEnabled() {
		if err := s.installPlan(stmt); err != nil {
			return 0, err
		}
		plan, err = s.lookupPlan(stmt)
		if err != nil {
			return 0, err
		}
	}
	return s.runner.Run(plan, bound)
}

// bindHostVars coerces each supplied literal to its statement-declared
// expected domain, positionally (spec.md §4.4 "binds host variables by
// position").
func bindHostVars(domains []expr.HostVarDomain, values []*expr.Literal, lateBind bool) ([]*expr.Literal, error) {
	out := make([]*expr.Literal, len(domains))
	for i, d := range domains {
		if i >= len(values) || values[i] == nil {
			out[i] = expr.NullLit()
			continue
		}
		dst := &expr.Literal{}
		coerced, err := expr.CoerceValue(values[i], d.Expected, dst, lateBind)
		if err != nil {
			return nil, err
		}
		out[i] = coerced
	}
	return out, nil
}

// Execute runs statement i, binding host variables by position, and
// returns the affected/produced row count (spec.md §4.4 "execute").
func (s *Session) Execute(i int, hostVarValues []*expr.Literal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	stmt, err := s.statementAt(i)
	if err != nil {
		return 0, err
	}
	rows, err := s.runWithRetry(stmt, hostVarValues)
	if err != nil {
		return 0, err
	}
	stmt.Stage = StageExecuted
	stmt.RowCount = rows
	return rows, nil
}

// Drop releases statement i and any plan ID it owns (spec.md §4.4,
// idempotent).
func (s *Session) Drop(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if i < 0 || i >= len(s.statements) {
		return nil // idempotent: already gone
	}
	s.releaseStatement(s.statements[i])
	s.statements[i] = &Statement{}
	return nil
}

// DropAll releases every statement owned by the session (idempotent).
func (s *Session) DropAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	for _, stmt := range s.statements {
		s.releaseStatement(stmt)
	}
	s.statements = nil
	return nil
}

// Close releases every owned statement, every cached plan ID, and
// every sub-session created for a named prepared statement, then
// marks the session closed (spec.md §3 Session lifecycle, idempotent).
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	for _, stmt := range s.statements {
		s.releaseStatement(stmt)
	}
	for _, stmt := range s.prepared {
		s.releaseStatement(stmt)
	}
	s.statements = nil
	s.prepared = nil
	s.snapshots = nil
	s.closed = true
	return nil
}

func (s *Session) releaseStatement(stmt *Statement) {
	if stmt == nil || !stmt.Cached {
		return
	}
	s.cache.Drop(stmt.Text, s.cfg.User, stmt.PlanID)
	stmt.Cached = false
}

// StatementCount returns the number of entries in the session's
// ordered statement array.
func (s *Session) StatementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.statements)
}

// StatementType reports whether statement i is a SELECT or not.
func (s *Session) StatementType(i int) (Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stmt, err := s.statementAt(i)
	if err != nil {
		return KindOther, err
	}
	return stmt.Kind, nil
}

// ColumnTypes returns the result column domains of statement i.
func (s *Session) ColumnTypes(i int) ([]expr.Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stmt, err := s.statementAt(i)
	if err != nil {
		return nil, err
	}
	return stmt.ColumnTypes, nil
}

// InputMarkers returns the expected domain of each positional host
// variable in statement i.
func (s *Session) InputMarkers(i int) ([]expr.HostVarDomain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stmt, err := s.statementAt(i)
	if err != nil {
		return nil, err
	}
	return stmt.HostVars, nil
}

// OutputMarkers is an alias for ColumnTypes kept for parity with the
// dispatcher's OutputMarkers request code (spec.md §4.4 metadata ops).
func (s *Session) OutputMarkers(i int) ([]expr.Domain, error) {
	return s.ColumnTypes(i)
}
