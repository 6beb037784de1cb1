// Package vecsync records every change made to the vector cache entries in a
// change-log table. Each insert, update or delete on the entries table
// advances a system change number (SCN) and stores a JSON payload of the row,
// so learned and removed patterns can be audited after the fact.
package vecsync
