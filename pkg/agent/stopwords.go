package agent

// stopWords holds common English words excluded from difficult
// vocabulary extraction. Only entries of minVocabularyLen or more
// matter here, but the full list is kept for clarity.
var stopWords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"against": true, "all": true, "am": true, "an": true, "and": true,
	"any": true, "anyone": true, "anything": true, "are": true, "aren't": true,
	"around": true, "as": true, "at": true, "be": true, "because": true,
	"been": true, "before": true, "being": true, "below": true, "between": true,
	"both": true, "but": true, "by": true, "can": true, "cannot": true,
	"could": true, "couldn't": true, "did": true, "didn't": true, "do": true,
	"does": true, "doesn't": true, "doing": true, "don't": true, "down": true,
	"during": true, "each": true, "either": true, "enough": true, "every": true,
	"everyone": true, "everything": true, "few": true, "for": true, "from": true,
	"further": true, "had": true, "hadn't": true, "has": true, "hasn't": true,
	"have": true, "haven't": true, "having": true, "he": true, "her": true,
	"here": true, "hers": true, "herself": true, "him": true, "himself": true,
	"his": true, "how": true, "however": true, "i": true, "if": true,
	"in": true, "instead": true, "into": true, "is": true, "isn't": true,
	"it": true, "its": true, "itself": true, "just": true, "like": true,
	"me": true, "more": true, "most": true, "much": true, "my": true,
	"myself": true, "no": true, "nobody": true, "nor": true, "not": true,
	"nothing": true, "now": true, "of": true, "off": true, "on": true,
	"once": true, "only": true, "or": true, "other": true, "others": true,
	"ought": true, "our": true, "ours": true, "ourselves": true, "out": true,
	"over": true, "own": true, "people": true, "perhaps": true, "please": true,
	"really": true, "same": true, "she": true, "should": true, "shouldn't": true,
	"so": true, "some": true, "somebody": true, "someone": true, "something": true,
	"still": true, "such": true, "than": true, "that": true, "the": true,
	"their": true, "theirs": true, "them": true, "themselves": true, "then": true,
	"there": true, "these": true, "they": true, "things": true, "this": true,
	"those": true, "through": true, "to": true, "today": true, "together": true,
	"too": true, "toward": true, "under": true, "until": true, "up": true,
	"us": true, "very": true, "was": true, "wasn't": true, "we": true,
	"were": true, "weren't": true, "what": true, "when": true, "where": true,
	"whether": true, "which": true, "while": true, "who": true, "whom": true,
	"whose": true, "why": true, "will": true, "with": true, "within": true,
	"without": true, "won't": true, "would": true, "wouldn't": true, "yes": true,
	"yet": true, "you": true, "your": true, "yours": true, "yourself": true,
	"yourselves": true,
}
