// Package core provides the business logic for parse and summary jobs.
//
// It is independent of any transport: the web handlers and the CLI both
// call [Service] directly.
//
// # Jobs
//
// Every call to [Service.ParseCSV], [Service.LoadCSVFile],
// [Service.SummariseLog] or [Service.SummariseFile] is one job. A job:
//
//  1. takes a slot from the [Limiter], waiting up to Limits.MaxWaitTime
//  2. runs under Limits.Timeout
//  3. reads its input whole, stripping a BOM and rejecting invalid UTF-8
//  4. hands the text to csvparse or logsummary
//  5. returns a result stamped with a fresh job ID
//
// Jobs share no state, so any number may run concurrently up to the limit.
// [Service.SummariseFiles] fans out over several paths at once.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE007: input errors (size, format, encoding, missing)
//   - JOB001-JOB003: job errors (busy, cancelled, timeout)
//   - RATE001: rate limiting
//   - ERR000: anything else
package core
