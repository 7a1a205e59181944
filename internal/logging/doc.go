// Package logging provides structured logging using uber/zap.
//
// The terminal UI draws on stdout, so the application logs JSON lines to a
// file under the data directory. Development mode switches to zap's
// console encoder.
//
//	logger := logging.NewDefault(filepath.Join(dataDir, "logs", "persona.log"))
//	logger.Named("session").Info("Session spawned", zap.String("persona", id))
package logging
