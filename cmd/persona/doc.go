// Package main is the persona command.
//
// Running persona without a subcommand opens the terminal UI: a persona
// list, one tab per opened persona and the agent's terminal inside each
// tab. Every persona runs its own agent process on a pseudo-terminal.
//
// Configuration is read from <user config dir>/persona/config.toml and
// overridden by the environment (BERRY_SERVER_URL, PERSONAS_DIR,
// PERSONA_AGENT, LOG_LEVEL, LOG_DEV) and then by flags.
//
// Usage:
//
//	persona                      # open the UI
//	persona --dev                # agents start in the current directory
//	persona --agent ./my-agent   # use another agent executable
//	persona personas             # list personas
//	persona config show          # print the effective configuration
//	persona config init          # write the default config file
//	persona version
//
// Logs go to <data dir>/logs/persona.log since the UI owns the terminal.
//
// Signals:
//   - SIGINT, SIGTERM: destroy all sessions and exit
package main
