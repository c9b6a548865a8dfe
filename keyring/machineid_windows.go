//go:build windows

package keyring

import "golang.org/x/sys/windows/registry"

// machineID reads the installation GUID Windows generates at setup.
func machineID() string {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Cryptography`, registry.QUERY_VALUE|registry.WOW64_64KEY)
	if err != nil {
		return "default-machine-id"
	}
	defer k.Close()

	guid, _, err := k.GetStringValue("MachineGuid")
	if err != nil || guid == "" {
		return "default-machine-id"
	}
	return guid
}
