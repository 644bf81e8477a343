package formatter

// CommunionHeading introduces the Lord's Supper liturgy printed after the second hymn.
const CommunionHeading = "The Sacrament of the Lord's Supper"

// communionLiturgy is the fixed table liturgy. Congregational lines are bold.
func communionLiturgy() []block {
	sub := func(heading string, paras ...paragraph) block {
		return block{heading: heading, sub: true, paras: paras}
	}
	leader := func(s string) paragraph { return paragraph{text: s} }
	people := func(s string) paragraph { return paragraph{text: s, bold: true} }

	return []block{
		{heading: CommunionHeading},
		sub("Invitation to the Table",
			leader("This is the table of our Lord Jesus Christ. It is not a reward for the righteous, "+
				"but nourishment for those who hunger; not a prize for the strong, but grace for those who are weary. "+
				"Here, blessing is not earned but received. All who seek to walk humbly with God, and who trust in God's mercy, "+
				"are welcome at this table."),
		),
		sub("Great Thanksgiving",
			leader("The Lord be with you."),
			people("And also with you."),
			leader("Lift up your hearts."),
			people("We lift them up to the Lord."),
			leader("Let us give thanks to the Lord our God."),
			people("It is right to give our thanks and praise."),
			leader("It is truly right and our greatest joy to give you thanks and praise, O God, "+
				"creator of heaven and earth, for you have made us and all things, and in your love you hold us in life. "+
				"And so we join the everlasting song:"),
			people("Holy, holy, holy Lord, God of power and might, heaven and earth are full of your glory. "+
				"Hosanna in the highest. Blessed is the one who comes in the name of the Lord. Hosanna in the highest."),
			leader("You are holy, O God of majesty, and blessed is Jesus Christ, your Son, our Lord, "+
				"who by his life, death, and resurrection has reconciled the world to you. On the night in which he gave himself up "+
				"he took bread, gave thanks, broke it, and gave it to his disciples. And likewise the cup after supper. "+
				"Remembering his death and resurrection, we offer ourselves in praise and thanksgiving. Therefore we proclaim the mystery of faith:"),
			leader("Christ has died."),
			leader("Christ is risen."),
			leader("Christ will come again."),
		),
		sub("Words of Institution", leader("[Words of institution as printed or as used.]")),
		sub("The Lord's Prayer", leader("[The Lord's Prayer as printed.]")),
		sub("Breaking of the Bread and Communion",
			leader("The bread that we break is a sharing in the body of Christ. "+
				"The cup that we bless is a sharing in the blood of Christ. Come, for all is ready."),
		),
		sub("Prayer After Communion",
			leader("Gracious God, we give you thanks that you have fed us at this table of grace, "+
				"strengthening us not to win our lives, but to live them faithfully. Send us out to do justice, "+
				"to love kindness, and to walk humbly with you, bearing your blessing into a world still hungry for hope, "+
				"through Jesus Christ our Lord. Amen."),
		),
	}
}
