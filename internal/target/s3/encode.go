package s3

import (
	"bytes"
	"encoding/json"
	"fmt"

	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/dataforge/synthcore/internal/tabular"
)

// formatExtension maps a format to its object-key extension.
func formatExtension(format string) string { return format }

// contentType returns the MIME type attached to uploads of the format.
func contentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// encodeTable converts a table into the requested binary encoding. An
// unsupported format raises a descriptive error rather than silently doing
// nothing.
func encodeTable(table *tabular.Table, format, compression string) ([]byte, error) {
	switch format {
	case FormatCSV:
		buf := &bytes.Buffer{}
		if err := table.EncodeCSV(buf); err != nil {
			return nil, wrapError(CodeEncodeFailed, false, err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return encodeJSON(table)
	case FormatParquet:
		return encodeParquet(table, compression)
	default:
		return nil, wrapError(CodeUnsupportedFormat, false, fmt.Errorf("unsupported format: %s", format))
	}
}

// encodeJSON renders the table as an array of records.
func encodeJSON(table *tabular.Table) ([]byte, error) {
	rows := table.Rows
	if rows == nil {
		rows = []tabular.Record{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, wrapError(CodeEncodeFailed, false, err)
	}
	return data, nil
}

// encodeParquet writes the table as a single parquet row group using a
// schema inferred from the column values. Compression defaults to snappy.
func encodeParquet(table *tabular.Table, compression string) ([]byte, error) {
	codec, err := parquetCodec(compression)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(parquetSchema(table), pfw, 1)
	if err != nil {
		return nil, wrapError(CodeEncodeFailed, false, err)
	}
	pw.CompressionType = codec

	for i, rec := range table.Rows {
		row := make(map[string]any, len(table.Columns))
		for _, col := range table.Columns {
			row[col] = parquetValue(rec[col], parquetType(table, col))
		}
		encoded, err := json.Marshal(row)
		if err != nil {
			return nil, wrapError(CodeEncodeFailed, false, err)
		}
		if err := pw.Write(string(encoded)); err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return nil, wrapError(CodeEncodeFailed, false, fmt.Errorf("row %d: %w", i, err))
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = pfw.Close()
		return nil, wrapError(CodeEncodeFailed, false, err)
	}
	if err := pfw.Close(); err != nil {
		return nil, wrapError(CodeEncodeFailed, false, err)
	}
	return buf.Bytes(), nil
}

func parquetCodec(compression string) (parquet.CompressionCodec, error) {
	switch compression {
	case "", "snappy":
		return parquet.CompressionCodec_SNAPPY, nil
	case "gzip":
		return parquet.CompressionCodec_GZIP, nil
	case "zstd":
		return parquet.CompressionCodec_ZSTD, nil
	case "none", "uncompressed":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return parquet.CompressionCodec_UNCOMPRESSED,
			wrapError(CodeUnsupportedFormat, false, fmt.Errorf("unsupported parquet compression: %s", compression))
	}
}

// parquetSchema builds the JSON tag schema parquet-go expects, inferring each
// column's physical type from its first non-nil value.
func parquetSchema(table *tabular.Table) string {
	fields := make([]map[string]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		tag := fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", col, parquetType(table, col))
		if parquetType(table, col) == "BYTE_ARRAY" {
			tag += ", convertedtype=UTF8"
		}
		fields = append(fields, map[string]string{"Tag": tag})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func parquetType(table *tabular.Table, column string) string {
	for _, rec := range table.Rows {
		switch rec[column].(type) {
		case nil:
			continue
		case bool:
			return "BOOLEAN"
		case int, int32, int64:
			return "INT64"
		case float32, float64:
			return "DOUBLE"
		default:
			return "BYTE_ARRAY"
		}
	}
	return "BYTE_ARRAY"
}

// parquetValue coerces a scalar to the shape the inferred column type needs.
func parquetValue(v any, physicalType string) any {
	if v == nil {
		return nil
	}
	if physicalType == "BYTE_ARRAY" {
		return tabular.FormatValue(v)
	}
	return v
}
