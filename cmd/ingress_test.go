package cmd

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIngressInstallsController(t *testing.T) {
	m := setupCommand(t)
	m.kubectl.On("Apply", mock.Anything, "kind-myenv", "").Return(nil)
	m.kubectl.On("WaitForCondition",
		"pod", "Ready", "app.kubernetes.io/component=controller", "90s", "kind-myenv", "ingress-nginx").
		Return(nil)

	cmd := newIngressCmd()
	cmd.SetArgs([]string{"myenv"})

	require.NoError(t, cmd.Execute())
	m.kubectl.AssertExpectations(t)
}

func TestIngressRejectsUnsupportedType(t *testing.T) {
	m := setupCommand(t)

	cmd := newIngressCmd()
	cmd.SetArgs([]string{"myenv", "--type", "traefik"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	require.Error(t, cmd.Execute())
	m.kubectl.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
}
