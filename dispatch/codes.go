package dispatch

// RequestCode identifies which handler in a Table serves a request.
type RequestCode uint32

const (
	Handshake RequestCode = iota + 1

	// session & statement book (C4)
	Compile
	Execute
	Drop
	DropAll
	CloseSession
	StatementCount
	StatementType
	ColumnTypes
	InputMarkers
	OutputMarkers

	// server-side prepared statements (C4)
	Prepare
	ExecutePrepared
	Deallocate

	// transaction control (C3 commit/abort decision table)
	Commit
	Abort

	// large-object handlers (C3)
	LargeObjectRead
	LargeObjectWrite
	LargeObjectInsert
	LargeObjectAppend

	// backup/dump handlers (C3)
	BackupDump

	// query manager (C7)
	ExecuteQuery
	PrepareAndExecute
	GetListFilePage
	EndQuery
	SyncQuery
	Interrupt
	GetQueryInfo

	// supplemented handlers (original_source had these alongside the
	// distilled request table; kept here since nothing in spec.md's
	// Non-goals excludes them)
	SerialNext
	CheckDB
	KillTran
)
