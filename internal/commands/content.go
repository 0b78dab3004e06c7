package commands

var mathFacts = []string{
	"Zero is the only number that cannot be represented in Roman numerals.",
	"A 'jiffy' is an actual unit of time: 1/100th of a second.",
	"The number 2520 is the smallest number divisible by every integer from 1 to 10.",
	"There are infinitely many primes, as Euclid proved around 300 BC.",
	"111,111,111 × 111,111,111 = 12,345,678,987,654,321.",
	"The sum of the angles of a triangle on a sphere is always more than 180°.",
	"A googol is 10¹⁰⁰; a googolplex is 10 raised to a googol.",
	"Pi has been computed to more than 100 trillion digits.",
	"Every even integer greater than 2 is conjectured to be the sum of two primes (Goldbach).",
	"In a room of 23 people, the chance two share a birthday is just over 50%.",
	"The Fibonacci ratio F(n+1)/F(n) converges to the golden ratio φ ≈ 1.618.",
	"There are exactly five Platonic solids.",
}

var mathQuotes = []string{
	"\"Mathematics is the queen of the sciences.\" - Carl Friedrich Gauss",
	"\"Pure mathematics is, in its way, the poetry of logical ideas.\" - Albert Einstein",
	"\"Do not worry about your difficulties in mathematics. I can assure you mine are still greater.\" - Albert Einstein",
	"\"Mathematics is not about numbers, equations, computations, or algorithms: it is about understanding.\" - William Paul Thurston",
	"\"The essence of mathematics lies in its freedom.\" - Georg Cantor",
	"\"Without mathematics, there's nothing you can do. Everything around you is mathematics.\" - Shakuntala Devi",
	"\"An equation for me has no meaning unless it expresses a thought of God.\" - Srinivasa Ramanujan",
	"\"Mathematics is the music of reason.\" - James Joseph Sylvester",
}

var mathPuzzles = []string{
	"I am a three-digit number. My tens digit is five more than my ones digit, and my hundreds digit is eight less than my tens digit. What number am I?",
	"A bat and a ball cost $1.10 in total. The bat costs $1.00 more than the ball. How much does the ball cost?",
	"What is the next number in the sequence 1, 11, 21, 1211, 111221, ...?",
	"If 5 machines take 5 minutes to make 5 widgets, how long do 100 machines take to make 100 widgets?",
	"How many times do the hour and minute hands of a clock overlap in 24 hours?",
	"Find the smallest positive integer that leaves remainder 1 when divided by 2, 3, 4, 5 and 6, and is divisible by 7.",
	"A lily pad doubles in size every day and covers the pond on day 48. On which day did it cover half the pond?",
	"Using four 4s and any operations, can you make every number from 0 to 10?",
}
