package param

import (
	"fmt"
	"net/http"
	"regexp"

	log "github.com/sirupsen/logrus"
)

// when requesting a param, also validate it against a regexp to ensure it is what we expect
var wordRegexp = regexp.MustCompile(`^[\w]+$`)
var numRegexp = regexp.MustCompile(`^[\d]+$`)
var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
var paramRegexp = map[string]*regexp.Regexp{
	"identity":     regexp.MustCompile(`^(user_id|email)$`),
	"free_chats":   regexp.MustCompile(`^(?i:true|false|1|0|t|f)$`),
	"top_n":        numRegexp,
	"start":        dateRegexp,
	"end":          dateRegexp,
	"forceRefresh": wordRegexp,
	"limit":        numRegexp,
	"sort":         regexp.MustCompile(`^(asc|desc)$`),
	"sortField":    wordRegexp,
}

// SafeRead returns the value of a query parameter only if it matches its regexp.
// this should be used to validate query parameters that are not otherwise validated.
func SafeRead(req *http.Request, name string) string {
	value, err := Read(req, name)
	if err != nil {
		log.Warn(err.Error())
		return ""
	}
	return value
}

// Read returns the value of a query parameter, or an error when it does not
// match the expected format. A missing parameter is the empty string.
func Read(req *http.Request, name string) (string, error) {
	re, ok := paramRegexp[name]
	if !ok {
		log.Fatalf("code BUG: request for unknown param %s", name) // revive:disable-line:deep-exit
	}
	value := req.URL.Query().Get(name)
	if value == "" || re.MatchString(value) {
		return value, nil
	}
	return "", fmt.Errorf("invalid value for %s param: %q", name, value)
}
