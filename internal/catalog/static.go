package catalog

import "where-money-moves/internal/domain"

type staticEdition struct {
	title, date, headline, stat, description, lore, rarity string
}

var staticEditions = [EditionCount]staticEdition{
	{
		title:       "Genesis Protocol",
		date:        "2024-01-15",
		headline:    "Plasma Network Initialization",
		stat:        "First Block Mined",
		description: "The foundational moment when Plasma's genesis block was mined, establishing the protocol's immutable foundation for programmable finance.",
		lore:        "In the depths of cryptographic history, the Genesis Protocol emerged as the first whisper of what would become a financial revolution. This edition captures the exact moment when mathematics met money.",
		rarity:      "Legendary",
	},
	{
		title:       "Settlement Surge",
		date:        "2024-02-08",
		headline:    "First Major Institution Onboard",
		stat:        "$1.2M Volume",
		description: "The first institutional settlement marked Plasma's transition from experimental protocol to enterprise-grade infrastructure.",
		lore:        "Traditional finance meets programmable money. The old guard recognizes the new paradigm, marking a pivotal shift in global capital flows.",
		rarity:      "Epic",
	},
	{
		title:       "Cross-Chain Confluence",
		date:        "2024-02-28",
		headline:    "Multi-Chain Bridge Activation",
		stat:        "7 Networks Connected",
		description: "Plasma's interoperability framework goes live, connecting disparate blockchain ecosystems under one settlement layer.",
		lore:        "The great convergence begins. Islands of value become an archipelago of liquidity, all flowing through Plasma's canonical channels.",
		rarity:      "Rare",
	},
	{
		title:       "Regulatory Recognition",
		date:        "2024-03-15",
		headline:    "G7 Nations Acknowledge Protocol",
		stat:        "Global Compliance",
		description: "International regulatory bodies formally recognize Plasma as a legitimate settlement infrastructure, paving the way for mass adoption.",
		lore:        "When governments speak, markets listen. The moment sovereign powers acknowledged the inevitability of programmable money.",
		rarity:      "Epic",
	},
	{
		title:       "Velocity Breakthrough",
		date:        "2024-04-02",
		headline:    "100k TPS Milestone Achieved",
		stat:        "Network Performance",
		description: "Plasma achieves unprecedented transaction throughput, proving its capability to handle global financial traffic.",
		lore:        "Speed is the currency of the digital age. This edition commemorates the moment Plasma outpaced legacy financial rails.",
		rarity:      "Legendary",
	},
	{
		title:       "DeFi Integration Wave",
		date:        "2024-04-20",
		headline:    "50+ Protocols Launch",
		stat:        "Ecosystem Expansion",
		description: "The DeFi ecosystem explodes on Plasma, with dozens of protocols launching innovative financial primitives.",
		lore:        "Innovation compounds exponentially. Fifty minds building fifty different futures, all settling on the same trustless foundation.",
		rarity:      "Rare",
	},
	{
		title:       "Enterprise Exodus",
		date:        "2024-05-10",
		headline:    "Fortune 500 Migration Begins",
		stat:        "Corporate Adoption",
		description: "Major corporations begin migrating treasury operations to Plasma-based solutions, signaling mainstream acceptance.",
		lore:        "The corporate world sheds its antiquated skin. Balance sheets transform from static ledgers to dynamic, programmable assets.",
		rarity:      "Epic",
	},
	{
		title:       "Quantum Resilience",
		date:        "2024-06-01",
		headline:    "Post-Quantum Cryptography Deployed",
		stat:        "Future-Proof Security",
		description: "Plasma becomes the first major protocol to implement post-quantum cryptographic standards, securing against future threats.",
		lore:        "Preparing for tomorrow's threats with today's mathematics. When quantum computers arrive, Plasma will remain unbreakable.",
		rarity:      "Legendary",
	},
	{
		title:       "Global South Awakening",
		date:        "2024-06-25",
		headline:    "Emerging Markets Embrace Protocol",
		stat:        "3B+ Population Served",
		description: "Plasma infrastructure enables financial inclusion for billions in emerging markets, democratizing access to global capital.",
		lore:        "The unbanked become the rebanked. Geography ceases to determine financial destiny as Plasma erases digital divides.",
		rarity:      "Epic",
	},
	{
		title:       "Central Bank Capitulation",
		date:        "2024-07-18",
		headline:    "First CBDC on Plasma",
		stat:        "Monetary Sovereignty",
		description: "The first central bank digital currency launches on Plasma infrastructure, validating the protocol's institutional grade.",
		lore:        "Sovereign power meets sovereign code. When central banks build on your rails, you've achieved something beyond disruption.",
		rarity:      "Legendary",
	},
	{
		title:       "AI-Financial Fusion",
		date:        "2024-08-05",
		headline:    "Autonomous Trading Protocols Go Live",
		stat:        "AI-Native Finance",
		description: "AI-driven financial protocols launch on Plasma, creating the first truly autonomous financial ecosystem.",
		lore:        "When artificial intelligence meets programmable money, the result transcends human financial imagination.",
		rarity:      "Mythical",
	},
	{
		title:       "Carbon Credit Confluence",
		date:        "2024-08-28",
		headline:    "Global Climate Finance Integration",
		stat:        "Planetary Scale",
		description: "Plasma becomes the backbone for global carbon credit markets, financializing climate action at planetary scale.",
		lore:        "When saving the planet becomes profitable, and profits become programmable. The earth's lungs breathe through code.",
		rarity:      "Epic",
	},
	{
		title:       "Pre-TGE Culmination",
		date:        "2024-09-20",
		headline:    "Final Preparations Complete",
		stat:        "TGE Countdown",
		description: "All systems converge as Plasma completes final preparations for the token generation event, marking the end of the pre-TGE arc.",
		lore:        "The chapter closes, but the story begins. Thirteen moments captured in time, leading to the dawn of a new financial epoch.",
		rarity:      "Mythical",
	},
}

// StaticEditions returns the curated edition definitions. Mint counts come
// from stats when present, indexed by id-1.
func StaticEditions(stats []uint64) []domain.EditionRecord {
	out := make([]domain.EditionRecord, EditionCount)
	for i, e := range staticEditions {
		id := i + 1
		out[i] = domain.EditionRecord{
			ID:          id,
			Title:       e.title,
			Date:        e.date,
			Headline:    e.headline,
			Stat:        e.stat,
			Description: e.description,
			Lore:        e.lore,
			Rarity:      e.rarity,
			MintCount:   statFor(stats, id),
			TotalSupply: TotalSupplyFor(id),
		}
	}
	return out
}
