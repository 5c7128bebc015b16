// Package logtail reads the tail of Hitch's JSON log file.
//
// Read uses a ring buffer so only the last maxLines are kept in memory no
// matter how large the file has grown. Parse and Format turn logrus JSON
// lines into the one-line form shown in the TUI's activity view and printed
// by `hitch logs`.
//
//	entries, err := logtail.ReadEntries(cfg.LogFile, 200)
//	for _, e := range entries {
//		fmt.Println(e.Format())
//	}
package logtail
