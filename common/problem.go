package common

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/moogar0880/problems"
)

type ProblemError struct {
	problems.DefaultProblem
}

func (o *ProblemError) Error() string {
	return fmt.Sprintf("%d %s: %s", o.ProblemStatus(), o.ProblemTitle(), o.Detail)
}

// IsProblem tells whether the response body is an RFC 7807 problem document
func IsProblem(res *http.Response) bool {
	mt, _, err := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if err != nil {
		return false
	}

	return mt == problems.ProblemMediaType
}

func CheckResponse(res *http.Response, expected ...int) error {
	for _, exp := range expected {
		if res.StatusCode == exp {
			return nil
		}
	}

	if IsProblem(res) {
		var prob ProblemError

		if err := DecodeJSONBody(res, &prob.DefaultProblem); err != nil {
			return fmt.Errorf(
				"could not decode problem response (status %d): %w",
				res.StatusCode,
				err,
			)
		}

		return &prob
	}

	return fmt.Errorf("unexpected HTTP response code %d", res.StatusCode)
}
