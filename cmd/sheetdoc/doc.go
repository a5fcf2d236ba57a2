// Command sheetdoc decodes spreadsheet workbooks into ordered JSON documents
// and manages a local store of ingested uploads.
//
// Usage:
//
//	sheetdoc decode report.xlsx --pretty
//	sheetdoc probe legacy.xls
//	sheetdoc ingest report.xlsx
//	sheetdoc list
//	sheetdoc show FILE1A2B3C4D
//	sheetdoc delete FILE1A2B3C4D
package main
