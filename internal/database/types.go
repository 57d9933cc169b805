package database

import "github.com/jmoiron/sqlx"

// rebind converts a `?`-style query into the placeholder style the
// active driver expects (`$1`, `$2`, ... for postgres), the same
// dialect-branching discipline the teacher's repositories use at each
// call site, centralized here so it's written once.
func rebind(query string) string {
	if DB.DriverName() == "postgres" {
		return sqlx.Rebind(sqlx.DOLLAR, query)
	}
	return query
}

// sqlxIn expands a `(?)` slice placeholder and rebinds the result for the
// active driver, wrapping sqlx.In for the handful of IN-clause queries the
// repositories need. args must hold every bind value of the query, in
// placeholder order, the slice included.
func sqlxIn(query string, args ...interface{}) (string, []interface{}, error) {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return rebind(expanded), expandedArgs, nil
}
