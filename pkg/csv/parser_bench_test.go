package csv_test

import (
	"encoding/csv"
	"fmt"
	"strings"
	"testing"

	shapecsv "github.com/shapestone/shape-csvchunk/pkg/csv"
)

// Benchmark data is generated once and reused across all benchmarks.
var benchData = map[string]string{
	"Small":  generateCSV(10),
	"Medium": generateCSV(1_000),
	"Large":  generateCSV(50_000),
}

func generateCSV(rows int) string {
	var b strings.Builder
	b.WriteString("id,name,email,note\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,User %d,user%d@example.com,\"likes \"\"quotes\"\", commas\"\n", i, i, i)
	}
	return b.String()
}

func BenchmarkParseRecords(b *testing.B) {
	for _, size := range []string{"Small", "Medium", "Large"} {
		data := benchData[size]
		for _, smart := range []bool{true, false} {
			opts := shapecsv.DefaultOptions()
			opts.SmartRegex = smart
			b.Run(fmt.Sprintf("%s/smart=%v", size, smart), func(b *testing.B) {
				b.SetBytes(int64(len(data)))
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, _, err := shapecsv.ParseRecords(data, opts); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkScanner(b *testing.B) {
	for _, size := range []string{"Small", "Medium", "Large"} {
		data := benchData[size]
		b.Run(size, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s, err := shapecsv.NewScanner(strings.NewReader(data), shapecsv.DefaultOptions())
				if err != nil {
					b.Fatal(err)
				}
				s.SetReuseRecord(true)
				for s.Scan() {
				}
				if err := s.Err(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkEncodingCSV_ReadAll is the encoding/csv baseline.
func BenchmarkEncodingCSV_ReadAll(b *testing.B) {
	for _, size := range []string{"Small", "Medium", "Large"} {
		data := benchData[size]
		b.Run(size, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := csv.NewReader(strings.NewReader(data)).ReadAll(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
