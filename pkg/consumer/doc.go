// Package consumer implements the consumer side of the bridge protocol.
//
// A Manager tracks the variable list the bridge dumps between the
// !LVARS-START and !LVARS-END lines, maps names to handles, remembers the
// last value of every variable and fans values out to listeners registered
// by name. It subscribes a variable when its first listener arrives and
// unsubscribes it when the last one leaves.
//
// Handles are only stable for one host session, so every freshly received
// list clears all bridge subscriptions and resubscribes the listened names
// under their new handles.
//
// A Session connects a Manager to a transport connection: it requests the
// list, polls for new variables and routes incoming areas to the Manager.
// The connection is either a transport.ClientConn or, when the bridge runs
// in the same process, a LocalConn attached to the shared area.Hub.
package consumer
