// Package logx configures formrelay's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - An optional Telegram sink that mirrors operator-relevant records
//     (min-level + rate limiting) into a log chat
package logx
