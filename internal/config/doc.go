// Package config loads the persona configuration file and resolves the
// directories the application works in.
//
// Configuration is read from <user config dir>/persona/config.toml. A missing
// file yields defaults; environment variables override individual values
// afterwards.
//
// Configuration Sections:
//   - agent: external agent executable and extra environment
//   - terminal: initial grid size and color theme
//   - berry: memory service URL, timeout, retries and rate limit
//   - personas: directory holding persona markdown files
//   - logging: level, development mode, log file
//   - control: optional loopback control API
//
// Environment Variables:
//   - BERRY_SERVER_URL, PERSONAS_DIR, PERSONA_AGENT
//   - LOG_LEVEL, LOG_DEV
//   - PERSONA_DEV (development mode, see WorkingDir)
package config
