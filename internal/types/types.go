// Shared identifier type for rides, drivers and sessions.
package types

type ID string
