package user

import "testing"

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		attrs   []string
		wantErr bool
	}{
		{name: "ok", pwd: "s3cr3t!Pass"},
		{name: "too short", pwd: "s3cr3t!", wantErr: true},
		{name: "whitespace", pwd: "s3cr3t pass", wantErr: true},
		{name: "all numeric", pwd: "1234567890", wantErr: true},
		{name: "same as username", pwd: "kalombo1", attrs: []string{"kalombo1"}, wantErr: true},
		{name: "similar to email local part", pwd: "kalombo123", attrs: []string{"kalombo1@test.cd"}, wantErr: true},
		{name: "unrelated to attributes", pwd: "s3cr3t!Pass", attrs: []string{"Awe Mwa", "awe", "awe@test.cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.pwd, tt.attrs...)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
