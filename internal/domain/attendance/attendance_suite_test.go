package attendance_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAttendance(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Attendance Suite")
}
