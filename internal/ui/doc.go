// Package ui is the Bubble Tea interface behind `songdeck browse`.
//
// The model loads the catalog once through a source.Loader, showing a
// spinner until it answers. A failed load is terminal: the screen shows a
// single error message and only quitting is possible.
//
// Once loaded, the table shows the filtered and sorted view with the sort
// direction marked on the active column. Filters, sorting and random picks
// run synchronously against an in-memory catalog.Store, except the title
// search, which waits for a short pause in typing before refiltering.
// Theme and sort choices are written to the preferences file.
package ui
