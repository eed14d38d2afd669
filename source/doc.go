// Package source streams build-failure reports out of a build-farm database.
//
// Reports live in a build_status table. Postgres is the production store;
// SQLite copies of the table are supported for local work and tests.
// Rows are read through a cursor and yielded one at a time, so arbitrarily
// large result sets never sit in memory at once.
package source
