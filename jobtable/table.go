package jobtable

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"hjta/util/filesys"
)

// Input that can't be read as a job table.  Errors from Read wrap this.
var ErrMalformed = errors.New("Malformed job table")

type column struct {
	name     string
	required bool
	format   func(r *JobRecord) string
	parse    func(r *JobRecord, s string) error
}

// The order of this table is the column order on output.  On input, columns are found by name.
var columns = []column{
	{"Batch", true,
		func(r *JobRecord) string { return r.Batch },
		func(r *JobRecord, s string) error {
			if s == "" {
				return errors.New("empty batch identifier")
			}
			r.Batch = s
			return nil
		}},
	{"Index", true,
		func(r *JobRecord) string { return strconv.FormatUint(r.Index, 10) },
		func(r *JobRecord, s string) (err error) {
			r.Index, err = strconv.ParseUint(s, 10, 64)
			return
		}},
	{"Schedd", false,
		func(r *JobRecord) string { return r.Schedd },
		func(r *JobRecord, s string) error { r.Schedd = s; return nil }},
	timeColumn("Submit", func(r *JobRecord) *Time { return &r.Submit }),
	timeColumn("TransferQueued", func(r *JobRecord) *Time { return &r.TransferQueued }),
	timeColumn("TransferStart", func(r *JobRecord) *Time { return &r.TransferStart }),
	timeColumn("ExecuteStart", func(r *JobRecord) *Time { return &r.ExecuteStart }),
	timeColumn("TransferOutQueued", func(r *JobRecord) *Time { return &r.TransferOutQueued }),
	timeColumn("TransferOutStart", func(r *JobRecord) *Time { return &r.TransferOutStart }),
	timeColumn("Complete", func(r *JobRecord) *Time { return &r.Complete }),
	timeColumn("JobStart", func(r *JobRecord) *Time { return &r.JobStart }),
	{"ExitCode", false,
		func(r *JobRecord) string {
			if !r.ExitCode.Valid {
				return ""
			}
			return strconv.FormatInt(r.ExitCode.Value, 10)
		},
		func(r *JobRecord, s string) error {
			if s == "" {
				return nil
			}
			v, err := strconv.ParseInt(s, 10, 64)
			r.ExitCode = SomeInt(v)
			return err
		}},
	floatColumn("InputSizeMB", func(r *JobRecord) *Float { return &r.InputSizeMB }),
	floatColumn("BytesSent", func(r *JobRecord) *Float { return &r.BytesSent }),
}

func timeColumn(name string, field func(r *JobRecord) *Time) column {
	return column{
		name: name,
		format: func(r *JobRecord) string {
			t := field(r)
			if !t.Valid {
				return ""
			}
			return strconv.FormatInt(t.Unix, 10)
		},
		parse: func(r *JobRecord, s string) error {
			if s == "" {
				return nil
			}
			v, err := strconv.ParseInt(s, 10, 64)
			*field(r) = At(v)
			return err
		},
	}
}

func floatColumn(name string, field func(r *JobRecord) *Float) column {
	return column{
		name: name,
		format: func(r *JobRecord) string {
			f := field(r)
			if !f.Valid {
				return ""
			}
			return strconv.FormatFloat(f.Value, 'g', -1, 64)
		},
		parse: func(r *JobRecord, s string) error {
			if s == "" {
				return nil
			}
			v, err := strconv.ParseFloat(s, 64)
			*field(r) = SomeFloat(v)
			return err
		},
	}
}

// The column names in output order.

func Header() []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}
	return names
}

func Write(output io.Writer, records []*JobRecord) error {
	wr := csv.NewWriter(output)
	if err := wr.Write(Header()); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, r := range records {
		for i, c := range columns {
			row[i] = c.format(r)
		}
		if err := wr.Write(row); err != nil {
			return err
		}
	}
	wr.Flush()
	return wr.Error()
}

// Write the whole table to the file in one operation, replacing any existing file.  If there is an
// error the existing file is untouched.

func WriteFile(filename string, records []*JobRecord) error {
	return filesys.WriteAtomically(filename, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if err := Write(w, records); err != nil {
			return err
		}
		return w.Flush()
	})
}

func Read(input io.Reader) ([]*JobRecord, error) {
	rdr := csv.NewReader(input)
	header, err := rdr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", ErrMalformed)
	}
	if err != nil {
		return nil, malformed(err)
	}

	// Map input column positions to known columns; unknown columns are ignored.
	known := make(map[string]int, len(columns))
	for i, c := range columns {
		known[c.name] = i
	}
	layout := make([]*column, len(header))
	seen := make(map[string]bool)
	for i, name := range header {
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicated column %s", ErrMalformed, name)
		}
		seen[name] = true
		if ix, found := known[name]; found {
			layout[i] = &columns[ix]
		}
	}
	for _, c := range columns {
		if c.required && !seen[c.name] {
			return nil, fmt.Errorf("%w: missing column %s", ErrMalformed, c.name)
		}
	}

	records := make([]*JobRecord, 0)
	for {
		fields, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}
		line, _ := rdr.FieldPos(0)
		r := new(JobRecord)
		for i, f := range fields {
			if c := layout[i]; c != nil {
				if err := c.parse(r, f); err != nil {
					return nil, fmt.Errorf("%w: line %d: column %s: bad value %q", ErrMalformed, line, c.name, f)
				}
			}
		}
		records = append(records, r)
	}
	return records, nil
}

func ReadFile(filename string) ([]*JobRecord, error) {
	input, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer input.Close()
	records, err := Read(bufio.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return records, nil
}

func malformed(err error) error {
	return errors.Join(ErrMalformed, err)
}
