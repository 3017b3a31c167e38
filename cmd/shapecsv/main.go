// Command shapecsv parses, inspects and serves CSV documents.
//
// Usage:
//
//	# Parse a file with the configured dialect and print JSON
//	shapecsv parse data.csv
//
//	# Semicolon-separated input from stdin, re-rendered as CSV
//	cat data.csv | shapecsv parse --separator ';' --format csv
//
//	# Show how the tokenizer splits the input
//	shapecsv tokens data.csv
//
//	# Guess the dialect of a file
//	shapecsv sniff data.csv
//
//	# Run the HTTP API, or ingest files dropped into a directory
//	shapecsv serve --config config.yaml
//	shapecsv watch --dir ./inbox
package main

func main() {
	Execute()
}
