package quota

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type DoctorReport struct {
	Checks []DoctorCheck `json:"checks"`
}

// Healthy requires the configuration and management endpoint checks to pass;
// missing accounts for an individual provider is a warning, not a failure.
func (r DoctorReport) Healthy() bool {
	for _, c := range r.Checks {
		switch c.Name {
		case "configuration", "management endpoint":
			if !c.OK {
				return false
			}
		}
	}
	return true
}

// RunDoctor verifies configuration and endpoint reachability, then reports
// how many tracked accounts each provider exposes.
func RunDoctor(ctx context.Context, client *Client, providers []string, timeout time.Duration) DoctorReport {
	var checks []DoctorCheck

	configCheck := checkConfiguration(client)
	checks = append(checks, configCheck)
	if !configCheck.OK {
		return DoctorReport{Checks: checks}
	}

	files, endpointCheck := checkManagementEndpoint(ctx, client, timeout)
	checks = append(checks, endpointCheck)
	if !endpointCheck.OK {
		return DoctorReport{Checks: checks}
	}

	for _, provider := range providers {
		checks = append(checks, checkProviderAccounts(provider, files))
	}
	return DoctorReport{Checks: checks}
}

func checkConfiguration(client *Client) DoctorCheck {
	if client == nil || client.baseURL == "" {
		return DoctorCheck{
			Name:    "configuration",
			OK:      false,
			Details: "CPA_BASE_URL is not set",
		}
	}
	if client.key == "" {
		return DoctorCheck{
			Name:    "configuration",
			OK:      false,
			Details: "CPA_MANAGEMENT_KEY is not set",
		}
	}
	return DoctorCheck{
		Name:    "configuration",
		OK:      true,
		Details: "base URL " + client.baseURL,
	}
}

func checkManagementEndpoint(parent context.Context, client *Client, timeout time.Duration) ([]AuthFile, DoctorCheck) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	files, err := client.ListAuthFiles(ctx)
	if err != nil {
		return nil, DoctorCheck{
			Name:    "management endpoint",
			OK:      false,
			Details: err.Error(),
		}
	}
	return files, DoctorCheck{
		Name:    "management endpoint",
		OK:      true,
		Details: fmt.Sprintf("%d auth files listed", len(files)),
	}
}

func checkProviderAccounts(provider string, files []AuthFile) DoctorCheck {
	var ids []string
	for _, file := range files {
		if file.Provider == provider {
			ids = append(ids, file.DisplayID())
		}
	}
	if len(ids) == 0 {
		return DoctorCheck{
			Name:    provider + " accounts",
			OK:      false,
			Details: "no accounts found",
		}
	}
	return DoctorCheck{
		Name:    provider + " accounts",
		OK:      true,
		Details: fmt.Sprintf("%d account(s): %s", len(ids), strings.Join(ids, ", ")),
	}
}
