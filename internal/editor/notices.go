package editor

import "fmt"

// Notices shown to the user. Kept as typed constants so call sites are
// checked at compile time instead of keying into a string table.
const (
	NoticeStarted            = "Server has been started..."
	NoticeIndexerReady       = "Indexer is ready"
	NoticeAnalyzerReady      = "Analyzer is ready"
	NoticeTypechecking       = "Typechecking..."
	NoticeUnknownSymbol      = "Symbol not found"
	NoticeFailedRefactoring  = "The refactoring could not be applied (more info at logs)"
	NoticeFullTypesEnabled   = "Qualified type display enabled"
	NoticeFullTypesDisabled  = "Qualified type display disabled"
	NoticeNoImportCandidates = "No import suggestions found."
	NoticeDebugVMError       = "Debugger VM error. Check the enslink log for details."
	NoticeDisabled           = "A connection error occurred; enslink has been disabled. " +
		"For more information, have a look at the log in the cache directory."
)

// NotSupportedNotice formats the message shown when the server rejects a
// feature as unimplemented.
func NotSupportedNotice(typehint, serverVersion string) string {
	return fmt.Sprintf("The feature %s is not supported by the current server version %s",
		typehint, serverVersion)
}

// ManualDocNotice formats the fallback message when a documentation URL
// could not be opened in a browser.
func ManualDocNotice(url string) string {
	return fmt.Sprintf("Go to %s", url)
}

// BreakNotice formats the message shown when execution hits a breakpoint.
func BreakNotice(file string, line int) string {
	return fmt.Sprintf("Execution stopped at %s:%d", file, line)
}
