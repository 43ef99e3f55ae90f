// Package casmap maps Go structs to Cassandra tables and user-defined
// types.
//
// There are three major pieces:
//
//   - Object: a struct embedding mapping.Embed whose fields map to the
//     columns of a table. The cql struct tag names the table and its
//     primary key; fields map to columns by name or tag.
//
//   - Client: the synchronous template the application works against.
//     It converts objects to rows and back, and delegates execution to
//     a Connector. Stream and Each cover incremental consumption of
//     large partitions.
//
//   - Connector: the backend interface. The cassandra package
//     implements it on the gocql driver; tests can substitute their
//     own.
//
// Schema DDL generation and lifecycle live in the schema package, raw
// statement building in querybuilder, and driver error translation in
// cqlerr.
package casmap
