// Package session pairs personas with running agent processes.
//
// The Registry is the only owner of Session values. It keeps at most one
// session per persona id, spawns agents through an injected SpawnFunc and
// runs one reader goroutine per session. Readers never touch registry state;
// they publish Events on the registry's single inbox, which the UI drains
// from its own loop. Events carry the process id they came from, so output
// from a session that has since been destroyed or restarted can be told
// apart and dropped.
package session
