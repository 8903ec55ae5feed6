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

// Package direrr defines the wire-level error surface: a typed CoreError
// carrying one of the ErrCode values named in the error handling design,
// following the same "typed error + Error() string" idiom as expr's
// TypeError/SyntaxError rather than bare errors.New for anything that
// crosses a component boundary.
package direrr

import (
	"errors"
	"fmt"
)

// ErrCode enumerates the error kinds the core must distinguish, grouped
// by surface.
type ErrCode int

const (
	_ ErrCode = iota

	// compile/execute surface
	InvalidSession
	EmptyStatement
	ObjInvalidArguments
	Syntax
	Semantic
	Execution

	// prepare/execute surface
	IncompatibleDatatype
	DataOverflow
	MultipleStatement
	IncorrectHostvarCount
	PreparedNameNotFound
	IsDisallowedAsPrepared

	// wire surface
	NetServerDataReceive
	NetDifferentBitPlatform
	NetDifferentRelease
	NetServerHandShake

	// runtime surface
	LkUnilaterallyAborted
	DbNoModifications
	Interrupted
	QprocInvalidXASLNode
	TimeConversion
	ZeroDivide
	OutOfVirtualMemory
	GenericError
)

var names = map[ErrCode]string{
	InvalidSession:          "INVALID_SESSION",
	EmptyStatement:          "EMPTY_STATEMENT",
	ObjInvalidArguments:     "OBJ_INVALID_ARGUMENTS",
	Syntax:                  "SYNTAX",
	Semantic:                "SEMANTIC",
	Execution:               "EXECUTION",
	IncompatibleDatatype:    "IT_INCOMPATIBLE_DATATYPE",
	DataOverflow:            "IT_DATA_OVERFLOW",
	MultipleStatement:       "IT_MULTIPLE_STATEMENT",
	IncorrectHostvarCount:   "IT_INCORRECT_HOSTVAR_COUNT",
	PreparedNameNotFound:    "IT_PREPARED_NAME_NOT_FOUND",
	IsDisallowedAsPrepared:  "IT_IS_DISALLOWED_AS_PREPARED",
	NetServerDataReceive:    "NET_SERVER_DATA_RECEIVE",
	NetDifferentBitPlatform: "NET_DIFFERENT_BIT_PLATFORM",
	NetDifferentRelease:     "NET_DIFFERENT_RELEASE",
	NetServerHandShake:      "NET_SERVER_HAND_SHAKE",
	LkUnilaterallyAborted:   "LK_UNILATERALLY_ABORTED",
	DbNoModifications:       "DB_NO_MODIFICATIONS",
	Interrupted:             "INTERRUPTED",
	QprocInvalidXASLNode:    "QPROC_INVALID_XASLNODE",
	TimeConversion:          "TIME_CONVERSION",
	ZeroDivide:              "ZERO_DIVIDE",
	OutOfVirtualMemory:      "OUT_OF_VIRTUAL_MEMORY",
	GenericError:            "GENERIC_ERROR",
}

func (c ErrCode) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("ErrCode(%d)", int(c))
}

// CoreError is the error type every component that can fail across a
// request boundary returns, so return_error_to_client always has a code
// to pack onto the wire (spec.md §7: "the only path from a handler to
// the wire").
type CoreError struct {
	Code ErrCode
	Msg  string
	// Cause, if non-nil, is the underlying error this CoreError wraps
	// (e.g. an I/O error from the storage layer).
	Cause error
}

func New(code ErrCode, msg string) *CoreError {
	return &CoreError{Code: code, Msg: msg}
}

func Wrap(code ErrCode, cause error) *CoreError {
	return &CoreError{Code: code, Msg: cause.Error(), Cause: cause}
}

func (e *CoreError) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *CoreError) Unwrap() error { return e.Cause }

// CodeOf extracts the ErrCode from err if it is (or wraps) a *CoreError,
// and GenericError otherwise -- the fallback return_error_to_client uses
// for an error that did not originate in this package.
func CodeOf(err error) ErrCode {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return GenericError
}
