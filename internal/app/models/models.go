package models

// ApplicationType identifies which identity document an application requests
type ApplicationType string

const (
	ApplicationTypeNewID            ApplicationType = "NEW_ID"
	ApplicationTypeIDRenewal        ApplicationType = "ID_RENEWAL"
	ApplicationTypeBirthCertificate ApplicationType = "BIRTH_CERTIFICATE"
)

// ApplicationTypes lists every supported application type in display order
var ApplicationTypes = []ApplicationType{
	ApplicationTypeNewID,
	ApplicationTypeIDRenewal,
	ApplicationTypeBirthCertificate,
}

// IsValid reports whether t is one of the supported application types
func (t ApplicationType) IsValid() bool {
	for _, known := range ApplicationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DisplayName returns the human readable label used in notifications
func (t ApplicationType) DisplayName() string {
	switch t {
	case ApplicationTypeNewID:
		return "New ID"
	case ApplicationTypeIDRenewal:
		return "ID Renewal"
	case ApplicationTypeBirthCertificate:
		return "Birth Certificate"
	default:
		return string(t)
	}
}

// ApplicationStatus is the review state of an application
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "PENDING"
	StatusReady    ApplicationStatus = "READY"
	StatusRejected ApplicationStatus = "REJECTED"
)

// IsValid reports whether s is a known status
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusReady, StatusRejected:
		return true
	}
	return false
}

// DisplayName returns the human readable label used in notifications
func (s ApplicationStatus) DisplayName() string {
	switch s {
	case StatusPending:
		return "Pending Review"
	case StatusReady:
		return "Ready for Pickup"
	case StatusRejected:
		return "Rejected"
	default:
		return string(s)
	}
}
