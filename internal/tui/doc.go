// Package tui is the terminal user interface.
//
// The Bubble Tea update loop is the only goroutine that touches UI state.
// Session readers publish into the registry's event channel and a
// re-issued command turns each event into a message for Update. Events
// whose process id no longer matches the persona's current session are
// dropped there.
//
// Three views share the screen: Personas (persona list, tab bar and the
// active conversation), Memory (Berry search and the persona's
// knowledgebase, whose notes can be edited in place) and Settings. In input mode every key goes to the active
// agent; ctrl+\ returns to navigation.
package tui
