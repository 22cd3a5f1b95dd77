// Package shared holds helpers used across packages that belong to no single component.
//
// The testutil subpackage captures slog output so tests can assert on what a
// component logged, and writes fixture files into temporary directories:
//
//	logger, handler := testutil.NewTestLogger(t)
//	params, err := config.LoadParams(path, logger)
//	testutil.AssertLogContains(t, handler, slog.LevelError, "not found")
package shared
