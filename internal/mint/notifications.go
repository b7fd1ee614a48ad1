package mint

import (
	"fmt"

	"where-money-moves/internal/domain"
)

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func notConnectedNotice() domain.Notification {
	return domain.Notification{
		Title:       "Wallet Not Connected",
		Description: "Please connect your wallet to mint",
		Severity:    domain.SeverityDestructive,
	}
}

func networkSwitchedNotice(network string) domain.Notification {
	return domain.Notification{
		Title:       "Network Switched",
		Description: fmt.Sprintf("Successfully switched to %s network. Confirm the mint again to continue", network),
		Severity:    domain.SeverityNormal,
	}
}

func switchFailedNotice(network string) domain.Notification {
	return domain.Notification{
		Title:       "Network Switch Failed",
		Description: fmt.Sprintf("Please manually switch to %s network in your wallet", network),
		Severity:    domain.SeverityDestructive,
	}
}

func quotaNotice(minted uint64, max uint64) domain.Notification {
	return domain.Notification{
		Title:       "Mint Limit Reached",
		Description: fmt.Sprintf("Each wallet can mint up to %d editions. You have minted %d", max, minted),
		Severity:    domain.SeverityDestructive,
	}
}

func invalidQuantityNotice(q int) domain.Notification {
	return domain.Notification{
		Title: "Invalid Quantity",
		Description: fmt.Sprintf("Choose between %d and %d editions (got %d)",
			domain.MinMintQuantity, domain.MaxMintQuantity, q),
		Severity: domain.SeverityDestructive,
	}
}

func quotaUnknownNotice(err error) domain.Notification {
	return domain.Notification{
		Title:       "Mint Unavailable",
		Description: fmt.Sprintf("Could not read your minted count: %v", err),
		Severity:    domain.SeverityDestructive,
	}
}

func submittedNotice(hash, url string) domain.Notification {
	desc := fmt.Sprintf("Transaction %s submitted. Waiting for confirmation", hash)
	if url != "" {
		desc += " " + url
	}
	return domain.Notification{
		Title:       "Transaction Submitted",
		Description: desc,
		Severity:    domain.SeverityNormal,
	}
}

func confirmedNotice(q int) domain.Notification {
	return domain.Notification{
		Title:       "Minting Complete!",
		Description: fmt.Sprintf("Successfully minted %d edition%s", q, plural(q)),
		Severity:    domain.SeverityNormal,
	}
}

func inferredNotice(q int) domain.Notification {
	return domain.Notification{
		Title:       "Minting Complete!",
		Description: fmt.Sprintf("Your minted count increased: %d edition%s landed on-chain", q, plural(q)),
		Severity:    domain.SeverityNormal,
	}
}

func mintFailedNotice(message string) domain.Notification {
	return domain.Notification{
		Title:       "Mint Failed",
		Description: message,
		Severity:    domain.SeverityDestructive,
	}
}

func revertedNotice(hash string) domain.Notification {
	return domain.Notification{
		Title:       "Confirmation Failed",
		Description: fmt.Sprintf("Transaction %s was reverted on-chain", hash),
		Severity:    domain.SeverityDestructive,
	}
}

func timedOutNotice(hash string) domain.Notification {
	return domain.Notification{
		Title: "Transaction Pending",
		Description: fmt.Sprintf("Transaction %s was not confirmed in time. It may still land: "+
			"check your wallet before trying again", hash),
		Severity: domain.SeverityNormal,
	}
}
