// Package tablebuilder turns a stream of records with varying fields, such as
// DynamoDB items, into one table with a single schema, without knowing the
// schema up front.
//
// Rows are buffered in windows of a fixed capacity. When a window is full (or
// the Builder is closed) it is flushed:
//
//   - The first flush creates a sink bound to the schema observed in the
//     window, columns in first-seen order.
//   - Later flushes write straight into the sink when its schema already
//     accepts every column kind observed in the window.
//   - Otherwise the sink is migrated: it is closed, a new sink is created with
//     the existing columns (kinds widened with cell.Join where needed)
//     followed by the new columns, and every row written so far is copied
//     across with Missing in the new columns.
//
// The committed schema only ever widens, columns never move once written,
// and rows keep their arrival order. A migration costs time proportional to
// the rows written so far, so input where every window introduces a new
// column degrades to quadratic work; a larger capacity trades memory for
// fewer migrations.
//
// An absent field is never observed: it neither creates nor widens a
// column. An explicit null (cell.Null) is observed, so it can introduce a
// column, but it never widens an existing one.
//
// Sink errors are returned wrapped. After one, the Builder is unusable and
// every call returns ErrBroken.
package tablebuilder
