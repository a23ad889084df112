// Package command parses and formats the text commands a consumer writes to
// the request area.
//
// Commands:
//
//	CLEAR              drop every subscription
//	LISTLVARS          discover new variables, then always send the full list
//	CHECKLVARS         discover new variables, send the list only if any appeared
//	SUBSCRIBE <id>     subscribe to the variable with handle id
//	UNSUBSCRIBE <id>   unsubscribe from the variable with handle id
//
// Keywords are case-sensitive and must be the first token of the request.
// Handle arguments are decimal integers in [0, wire.MaxHandle]; a missing or
// malformed argument is rejected rather than read as handle 0.
//
// The protocol has no error channel. Callers drop commands that fail to
// parse.
package command
