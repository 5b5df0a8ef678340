package repository

import "testing"

func TestWithParam(t *testing.T) {
	cases := []struct {
		dsn, param, want string
	}{
		{"postgres://u:p@localhost:5432/db", "sslmode=disable", "postgres://u:p@localhost:5432/db?sslmode=disable"},
		{"postgresql://u@h/db?application_name=x", "sslmode=disable", "postgresql://u@h/db?application_name=x&sslmode=disable"},
		{"host=localhost dbname=db", "sslmode=disable", "host=localhost dbname=db sslmode=disable"},
	}
	for _, tc := range cases {
		if got := withParam(tc.dsn, tc.param); got != tc.want {
			t.Errorf("withParam(%q) = %q, want %q", tc.dsn, got, tc.want)
		}
	}
}
