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

// Package logctx defines the small logging collaborator that package
// dispatch and the qserverd daemon take instead of calling log.Printf
// directly, mirroring the teacher's tenant/dcache.Logger.
package logctx

import "log"

// Logger is satisfied by *log.Logger and by any test double that only
// needs to record formatted messages.
type Logger interface {
	Printf(f string, args ...interface{})
}

// StdLogger adapts a *log.Logger to Logger.
type StdLogger struct {
	L *log.Logger
}

func (s StdLogger) Printf(f string, args ...interface{}) { s.L.Printf(f, args...) }

// nopLogger discards everything; used as the default when a caller
// doesn't supply one, so components never need a nil check before
// logging.
type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// Nop is the shared no-op Logger.
var Nop Logger = nopLogger{}

// OrNop returns l, or Nop if l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop
	}
	return l
}
