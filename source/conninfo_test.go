package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnInfo_DSN(t *testing.T) {
	tests := []struct {
		name string
		info ConnInfo
		want string
	}{
		{
			name: "discrete fields",
			info: ConnInfo{Host: "localhost", Port: 5432, DBName: "buildfarm", User: "reader", Password: "secret"},
			want: "host=localhost port=5432 dbname=buildfarm user=reader password=secret",
		},
		{
			name: "empty password is omitted",
			info: ConnInfo{Host: "db", DBName: "buildfarm", User: "reader"},
			want: "host=db dbname=buildfarm user=reader",
		},
		{
			name: "quotes special characters",
			info: ConnInfo{Host: "db", Password: `it's a \secret`},
			want: `host=db password='it\'s a \\secret'`,
		},
		{
			name: "raw options win",
			info: ConnInfo{Host: "ignored", Options: "host=db sslmode=require"},
			want: "host=db sslmode=require",
		},
		{
			name: "raw options with password",
			info: ConnInfo{Options: "host=db", Password: "pw"},
			want: "host=db password=pw",
		},
		{
			name: "forced empty password",
			info: ConnInfo{Host: "db", Password: "ignored", NoPassword: true},
			want: "host=db password=''",
		},
		{
			name: "raw options with forced empty password",
			info: ConnInfo{Options: "host=db", NoPassword: true},
			want: "host=db password=''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.DSN())
		})
	}
}
