package login

import "github.com/yllada/anyconnect-autologin/automation"

// Window titles and texts shown by the AnyConnect client.
const (
	MainTitle              = "Cisco AnyConnect Secure Mobility Client"
	LoginTitlePrefix       = "Cisco AnyConnect | "
	TermsTitle             = "Cisco AnyConnect"
	CertificateTitle       = "Cisco AnyConnect Secure Mobility Client"
	CertificateWarningText = "Security Warning: Untrusted Server Certificate!"
	CertificateBlockedText = "Untrusted Server Blocked!"
	ReadyText              = "Ready to connect."
)

// Windows the login sequence waits on.
var (
	MainWindow         = automation.Window{Title: MainTitle}
	ReadyWindow        = automation.Window{Title: MainTitle, Text: ReadyText}
	TermsWindow        = automation.Window{Title: TermsTitle}
	CertificateWarning = automation.Window{Title: CertificateTitle, Text: CertificateWarningText}
	CertificateBlocked = automation.Window{Title: CertificateTitle, Text: CertificateBlockedText}
)

// LoginWindow is the credentials window, titled after the domain.
func LoginWindow(domain string) automation.Window {
	return automation.Window{Title: LoginTitlePrefix + domain}
}

// Main window controls.
var (
	DomainTextbox    = automation.MustParseSelector("[CLASS:Edit; INSTANCE:1]")
	DomainDropdown   = automation.MustParseSelector("[CLASS:ComboBox; INSTANCE:1]")
	ConnectButton    = automation.MustParseSelector("[CLASS:Button; TEXT:Connect; INSTANCE:1]")
	DisconnectButton = automation.MustParseSelector("[CLASS:Button; TEXT:Disconnect; INSTANCE:1]")
)

// Login window controls.
var (
	GroupDropdown   = automation.MustParseSelector("[CLASS:ComboBox; INSTANCE:1]")
	UsernameTextbox = automation.MustParseSelector("[CLASS:Edit; INSTANCE:1]")
	PasswordTextbox = automation.MustParseSelector("[CLASS:Edit; INSTANCE:2]")
	OKButton        = automation.MustParseSelector("[CLASS:Button; TEXT:OK; INSTANCE:1]")
)

// Terms and conditions controls.
var AcceptButton = automation.MustParseSelector("[CLASS:Button; TEXT:Accept; INSTANCE:1]")

// Certificate warning controls. ChangeSettingButton and
// CancelConnectionButton are not clicked by the login sequence; they are
// kept as the catalogued controls of the dialog.
var (
	KeepMeSafeButton       = automation.MustParseSelector("[CLASS:Button; TEXT:Keep Me Safe; INSTANCE:1]")
	ChangeSettingButton    = automation.MustParseSelector("[CLASS:Button; TEXT:Change Setting...; INSTANCE:2]")
	ConnectAnywayButton    = automation.MustParseSelector("[CLASS:Button; ID:1067; INSTANCE:2]")
	CancelConnectionButton = automation.MustParseSelector("[CLASS:Button; TEXT:Cancel Connection; INSTANCE:1]")
)
